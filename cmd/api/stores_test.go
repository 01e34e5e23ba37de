package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/loanlink/backend/internal/config"
	"github.com/stretchr/testify/require"
)

func TestOpenMemoryStores(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := openStores(context.Background(), config.Config{StoreDriver: config.StoreMemory}, logger)
	require.NoError(t, err)
	defer st.close()

	require.NoError(t, st.pinger.Ping(context.Background()))
	require.NotNil(t, st.users)
	require.NotNil(t, st.loans)
	require.NotNil(t, st.applications)
}

func TestOpenStoresRejectsUnknownDriver(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err := openStores(context.Background(), config.Config{StoreDriver: "sqlite"}, logger)
	require.Error(t, err)
}
