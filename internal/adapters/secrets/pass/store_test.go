package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetUsesPassShowAndKeepsFirstLine(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, args ...string) (string, string, error) {
			assert.Equal(t, []string{"show", "rfn/openai"}, args)
			return "sk-test\r\nuser: me\n", "", nil
		},
	}

	value, err := store.Get(context.Background(), "rfn/openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", value)
}

func TestStoreGetRejectsEmptyEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(context.Context, ...string) (string, string, error) {
			return "\n", "", nil
		},
	}

	_, err := store.Get(context.Background(), "rfn/openai")
	require.ErrorContains(t, err, "is empty")
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(context.Context, ...string) (string, string, error) {
			return "", "rfn/openai is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), "rfn/openai")
	require.Error(t, err)
	assert.ErrorContains(t, err, "pass show")
	assert.ErrorContains(t, err, "rfn/openai")
	assert.ErrorContains(t, err, "not in the password store")
}

func TestStoreGetHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(context.Context, ...string) (string, string, error) {
			t.Fatal("pass must not run")
			return "", "", nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "rfn/openai")
	require.ErrorIs(t, err, context.Canceled)
}
