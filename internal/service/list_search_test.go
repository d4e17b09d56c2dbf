package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"otomar/internal/dto"
	"otomar/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupListSearchService(t *testing.T, notifyTo string) (ListSearchService, repository.ListSearchRepository, *fakeMailer, string) {
	env := setupTestEnv(t)
	dir := t.TempDir()
	repo := repository.NewListSearchRepository(env.db)
	return NewListSearchService(repo, env.mailer, dir, notifyTo, zerolog.Nop()), repo, env.mailer, dir
}

func testListSearchRequest() *dto.CreateListSearchRequest {
	return &dto.CreateListSearchRequest{
		FullName:      "Ali Kaya",
		Email:         "ali@example.com",
		Phone:         "05321112233",
		VehicleBrand:  "Fiat",
		VehicleModel:  "Egea",
		ModelYear:     2019,
		ChassisNumber: "zfa35600006h12345",
		Parts:         "ön amortisör x2\nrot başı",
	}
}

func attachment(name string, content []byte) *Attachment {
	return &Attachment{
		FileName:    name,
		ContentType: "application/octet-stream",
		Size:        int64(len(content)),
		Content:     bytes.NewReader(content),
	}
}

func TestListSearchCreate_StoresFilesAndNotifies(t *testing.T) {
	svc, repo, mailer, dir := setupListSearchService(t, "satis@otomar.com.tr")
	ctx := context.Background()

	resp, err := svc.Create(ctx, testListSearchRequest(), []*Attachment{
		attachment("ruhsat.PDF", []byte("%PDF-1.4")),
		attachment("parca.jpg", []byte{0xff, 0xd8, 0xff}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ruhsat.PDF", "parca.jpg"}, resp.Files)

	stored, err := repo.FindByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "ZFA35600006H12345", stored.ChassisNumber)
	require.Len(t, stored.Files, 2)
	assert.True(t, strings.HasSuffix(stored.Files[0].StoredName, ".pdf"))

	content, err := os.ReadFile(filepath.Join(dir, resp.ID, stored.Files[0].StoredName))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))

	require.Equal(t, 1, mailer.count())
	assert.Equal(t, []string{"satis@otomar.com.tr"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "rot başı")
}

func TestListSearchCreate_WithoutFilesOrRecipient(t *testing.T) {
	svc, _, mailer, dir := setupListSearchService(t, "")

	resp, err := svc.Create(context.Background(), testListSearchRequest(), nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Files)
	assert.Zero(t, mailer.count())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListSearchCreate_RejectsBadAttachments(t *testing.T) {
	svc, _, _, dir := setupListSearchService(t, "")
	ctx := context.Background()

	var six []*Attachment
	for i := 0; i < 6; i++ {
		six = append(six, attachment("a.png", []byte("x")))
	}
	_, err := svc.Create(ctx, testListSearchRequest(), six)
	assert.ErrorIs(t, err, ErrTooManyFiles)

	_, err = svc.Create(ctx, testListSearchRequest(), []*Attachment{attachment("virus.exe", []byte("MZ"))})
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)

	big := &Attachment{FileName: "big.png", Size: MaxListSearchFileSize + 1, Content: bytes.NewReader(nil)}
	_, err = svc.Create(ctx, testListSearchRequest(), []*Attachment{big})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	// declared size lies, content does not
	liar := &Attachment{FileName: "liar.png", Size: 10, Content: bytes.NewReader(make([]byte, MaxListSearchFileSize+1))}
	_, err = svc.Create(ctx, testListSearchRequest(), []*Attachment{liar})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave nothing behind")
}
