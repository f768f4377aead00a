package chain

import (
	"context"
	"errors"
	"testing"

	portmocks "github.com/bnema/refine-cli/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *portmocks.MockSecretReader, *portmocks.MockSecretReader) {
	t.Helper()

	primary := portmocks.NewMockSecretReader(t)
	fallback := portmocks.NewMockSecretReader(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)
	return store, primary, fallback
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, "rfn/openai").Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), "rfn/openai")
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, "rfn/openai").Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, "rfn/openai").Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), "rfn/openai")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReturnsCombinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, "rfn/openai").Return("", errors.New("pass failed")).Once()
	fallback.EXPECT().Get(mock.Anything, "rfn/openai").Return("", errors.New("file failed")).Once()

	_, err := store.Get(context.Background(), "rfn/openai")
	require.Error(t, err)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "file failed")
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, "rfn/openai").Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), "rfn/openai")
	require.ErrorIs(t, err, context.Canceled)
}

func TestStoreResolve(t *testing.T) {
	t.Parallel()

	store, primary, _ := newTestStore(t)
	primary.EXPECT().Get(mock.Anything, "rfn/anthropic").Return("sk-ant", nil).Once()

	value, err := store.Resolve(context.Background(), "sk-literal")
	require.NoError(t, err)
	assert.Equal(t, "sk-literal", value)

	value, err = store.Resolve(context.Background(), " secret:rfn/anthropic ")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", value)

	_, err = store.Resolve(context.Background(), "secret:")
	require.ErrorContains(t, err, "empty key")
}

func TestNewStoreRequiresBothBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore(nil, portmocks.NewMockSecretReader(t))
	require.ErrorIs(t, err, errNilPrimaryStore)
	_, err = NewStore(portmocks.NewMockSecretReader(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}
