package model

import (
	"encoding/xml"
	"net/url"
)

// CC5Response is the envelope the virtual POS posts back once 3-D Secure completes.
type CC5Response struct {
	XMLName        xml.Name `xml:"CC5Response"`
	OrderID        string   `xml:"OrderId"`
	GroupID        string   `xml:"GroupId"`
	Response       string   `xml:"Response"`
	AuthCode       string   `xml:"AuthCode"`
	HostRefNum     string   `xml:"HostRefNum"`
	ProcReturnCode string   `xml:"ProcReturnCode"`
	TransID        string   `xml:"TransId"`
	ErrMsg         string   `xml:"ErrMsg"`
	Extra          CC5Extra `xml:"Extra"`
	// Hash signs every other element with the store key, ver3 style.
	Hash string `xml:"HASH"`
}

type CC5Extra struct {
	SettleID   string `xml:"SETTLEID"`
	TrxDate    string `xml:"TRXDATE"`
	ErrorCode  string `xml:"ERRORCODE"`
	CardBrand  string `xml:"CARDBRAND"`
	CardIssuer string `xml:"CARDISSUER"`
	MaskedPan  string `xml:"MASKEDPAN"`
	NumCode    string `xml:"NUMCODE"`
}

// SignedFields lists the elements covered by Hash, keyed by element name.
func (r *CC5Response) SignedFields() url.Values {
	v := url.Values{}
	v.Set("OrderId", r.OrderID)
	v.Set("GroupId", r.GroupID)
	v.Set("Response", r.Response)
	v.Set("AuthCode", r.AuthCode)
	v.Set("HostRefNum", r.HostRefNum)
	v.Set("ProcReturnCode", r.ProcReturnCode)
	v.Set("TransId", r.TransID)
	v.Set("ErrMsg", r.ErrMsg)
	v.Set("SETTLEID", r.Extra.SettleID)
	v.Set("TRXDATE", r.Extra.TrxDate)
	v.Set("ERRORCODE", r.Extra.ErrorCode)
	v.Set("CARDBRAND", r.Extra.CardBrand)
	v.Set("CARDISSUER", r.Extra.CardIssuer)
	v.Set("MASKEDPAN", r.Extra.MaskedPan)
	v.Set("NUMCODE", r.Extra.NumCode)
	return v
}

func (r *CC5Response) Approved() bool {
	return r.ProcReturnCode == BankApprovedCode
}
