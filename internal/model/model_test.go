package model

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentIsSuccess(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"00", true},
		{"05", false},
		{"99", false},
		{"", false},
	}

	for _, tt := range tests {
		p := &Payment{BankProcReturnCode: tt.code}
		assert.Equal(t, tt.want, p.IsSuccess(), "code %q", tt.code)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	assert.True(t, OrderStatusWaitingForPayment.CanTransitionTo(OrderStatusPaid))
	assert.True(t, OrderStatusWaitingForPayment.CanTransitionTo(OrderStatusPaymentFailed))
	assert.False(t, OrderStatusWaitingForPayment.CanTransitionTo(OrderStatusWaitingForPayment))

	for _, from := range []OrderStatus{OrderStatusPaid, OrderStatusPaymentFailed} {
		for _, to := range []OrderStatus{OrderStatusWaitingForPayment, OrderStatusPaid, OrderStatusPaymentFailed} {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestOutcomeForReturnCode(t *testing.T) {
	ps, os := OutcomeForReturnCode("00")
	assert.Equal(t, PaymentStatusSuccess, ps)
	assert.Equal(t, OrderStatusPaid, os)

	ps, os = OutcomeForReturnCode("05")
	assert.Equal(t, PaymentStatusFailed, ps)
	assert.Equal(t, OrderStatusPaymentFailed, os)
}

func TestCC5ResponseDecode(t *testing.T) {
	body := `<CC5Response>
  <OrderId>OT241019ABCDEF</OrderId>
  <Response>Approved</Response>
  <AuthCode>P12345</AuthCode>
  <ProcReturnCode>00</ProcReturnCode>
  <TransId>24293Q1234</TransId>
  <ErrMsg></ErrMsg>
  <Extra>
    <SETTLEID>2011</SETTLEID>
    <CARDBRAND>VISA</CARDBRAND>
    <CARDISSUER>AKBANK T.A.S.</CARDISSUER>
  </Extra>
</CC5Response>`

	var resp CC5Response
	require.NoError(t, xml.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "OT241019ABCDEF", resp.OrderID)
	assert.True(t, resp.Approved())
	assert.Equal(t, "VISA", resp.Extra.CardBrand)
	assert.Equal(t, "2011", resp.Extra.SettleID)
}
