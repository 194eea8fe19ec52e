package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"karya/internal/domain"
	"karya/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupCreateUser(t *testing.T) {
	idp := &testutil.FakeIdentity{}
	s := NewSetupService(idp, &testutil.FakePolicies{})

	require.NoError(t, s.CreateUser(context.Background(), "alice", "S3cret!pass"))
	assert.Equal(t, []string{"create:alice", "password:alice"}, idp.Calls)

	assert.True(t, errors.Is(s.CreateUser(context.Background(), "", "x"), domain.ErrValidation))

	idp.CreateErr = errors.New("UsernameExistsException")
	idp.Calls = nil
	assert.True(t, errors.Is(s.CreateUser(context.Background(), "alice", "x"), domain.ErrDependency))
	assert.Equal(t, []string{"create:alice"}, idp.Calls)
}

func TestSetupSeedPolicy(t *testing.T) {
	pol := &testutil.FakePolicies{}
	s := NewSetupService(&testutil.FakeIdentity{}, pol)

	require.NoError(t, s.SeedPolicy(context.Background(), "karya-group", "arn:aws:execute-api:us-east-1:1:*"))
	require.Len(t, pol.Policies, 1)
	assert.Equal(t, "karya-group", pol.Policies[0].Group)
	assert.Len(t, pol.Policies[0].Document.Statement[0].Resource, 3)
}

func TestTokenManager(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)

	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := m.Generate("u1")
	require.NoError(t, err)

	owner, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	other, _ := NewTokenManager("other-secret", time.Hour)
	_, err = other.Parse(token)
	assert.Error(t, err)

	expired, _ := NewTokenManager("test-secret", time.Nanosecond)
	old, _ := expired.Generate("u1")
	time.Sleep(time.Second)
	_, err = m.Parse(old)
	assert.Error(t, err)
}
