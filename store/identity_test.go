package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridoc/document-registry-backend/interfaces"
)

func newMockIdentityRepo(t *testing.T) (*IdentityRepo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewIdentityRepo(&DB{Pool: mock}), mock
}

func identityRow(id uuid.UUID, publicID string, addr []byte, role string, verified bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "public_id", "display_name", "chain_address", "role", "verified_authority",
	}).AddRow(id, publicID, "City Registrar", addr, role, verified)
}

func TestIdentityRepoByPublicID(t *testing.T) {
	repo, mock := newMockIdentityRepo(t)

	id := uuid.New()
	addr := make([]byte, 20)
	addr[19] = 0x42

	mock.ExpectQuery(`FROM identities WHERE public_id`).
		WithArgs("registrar-001").
		WillReturnRows(identityRow(id, "registrar-001", addr, "authority", true))

	ident, err := repo.ByPublicID(context.Background(), "registrar-001")
	require.NoError(t, err)
	assert.Equal(t, id, ident.ID)
	assert.Equal(t, interfaces.RoleAuthority, ident.Role)
	assert.True(t, ident.IsVerifiedAuthority())
	assert.Equal(t, addr, ident.Address.Bytes())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepoByPublicIDNotFound(t *testing.T) {
	repo, mock := newMockIdentityRepo(t)

	mock.ExpectQuery(`FROM identities WHERE public_id`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.ByPublicID(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrIdentityNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepoByAddress(t *testing.T) {
	repo, mock := newMockIdentityRepo(t)

	id := uuid.New()
	addr := make([]byte, 20)
	addr[0] = 0x01

	mock.ExpectQuery(`FROM identities WHERE chain_address`).
		WithArgs(addr).
		WillReturnRows(identityRow(id, "holder-007", addr, "user", false))

	var parsed interfaces.Address
	copy(parsed[:], addr)

	ident, err := repo.ByAddress(context.Background(), parsed)
	require.NoError(t, err)
	assert.Equal(t, interfaces.RoleUser, ident.Role)
	assert.False(t, ident.IsVerifiedAuthority())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepoSigningKeyForMalformed(t *testing.T) {
	repo, mock := newMockIdentityRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT signing_key FROM identities`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"signing_key"}).AddRow("not-a-hex-key"))

	_, err := repo.SigningKeyFor(context.Background(), id)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepoSigningKeyFor(t *testing.T) {
	repo, mock := newMockIdentityRepo(t)

	id := uuid.New()
	keyHex := "4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

	mock.ExpectQuery(`SELECT signing_key FROM identities`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"signing_key"}).AddRow(keyHex))

	key, err := repo.SigningKeyFor(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, key.Address.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepoSigningKeyForUnknown(t *testing.T) {
	repo, mock := newMockIdentityRepo(t)

	id := uuid.New()
	mock.ExpectQuery(`SELECT signing_key FROM identities`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.SigningKeyFor(context.Background(), id)
	assert.ErrorIs(t, err, interfaces.ErrIdentityNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
