package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/confirmation"
	"github.com/rcarvalho-pb/ipsim-go/internal/config"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
	"github.com/rcarvalho-pb/ipsim-go/internal/infrastructure/apiclient"
)

func newTestApp(t *testing.T, approvalRate float64, dbPath string) (*app, *apiclient.Client) {
	t.Helper()

	cfg := config.Default()
	cfg.Server.DatabasePath = dbPath
	cfg.Server.ApprovalRate = approvalRate
	cfg.Server.SettleDelay = 20 * time.Millisecond
	cfg.Server.DispatchInterval = 5 * time.Millisecond
	cfg.Poller.Interval = 10 * time.Millisecond
	cfg.Poller.Deadline = 5 * time.Second

	zl := zap.NewNop()
	logger := logging.NewZapLogger(zl)

	sim, err := newSimulator(cfg.Server, logger)
	require.NoError(t, err)
	sim.start()
	t.Cleanup(func() { sim.Close() })

	srv := httptest.NewServer(sim.handler)
	t.Cleanup(srv.Close)

	cfg.Client.BaseURL = srv.URL
	a := &app{cfg: cfg, zap: zl, logger: logger}
	return a, apiclient.New(srv.URL, &http.Client{Timeout: time.Second})
}

func submit(t *testing.T, c *apiclient.Client) transaction.Transaction {
	t.Helper()
	tx, err := c.Submit(context.Background(), apiclient.PaymentRequest{
		Amount:       10_000,
		Type:         "DEBIT",
		Installments: 1,
		CardNumber:   "4000123456789010",
		CardHolder:   "SIMULATED USER",
		CardExpiry:   "12/30",
	})
	require.NoError(t, err)
	require.Equal(t, transaction.StatusPending, tx.Status)
	return tx
}

func TestWatch_ShouldReportApprovedPayment(t *testing.T) {
	a, client := newTestApp(t, 1, "")
	tx := submit(t, client)

	var out bytes.Buffer
	outcome := a.watch(context.Background(), client, confirmation.Reference(tx.OrderNSU), &out)

	require.Equal(t, confirmation.OutcomeApproved, outcome)
	require.NoError(t, outcomeErr(outcome))
	require.Contains(t, out.String(), "Waiting for payment "+tx.OrderNSU)
	require.Contains(t, out.String(), "Payment approved: amount R$ 100.00, net R$ 98.50")
}

func TestWatch_ShouldReportDeclinedPaymentWithSQLiteStorage(t *testing.T) {
	a, client := newTestApp(t, 0, filepath.Join(t.TempDir(), "ipsim.db"))
	tx := submit(t, client)

	var out bytes.Buffer
	outcome := a.watch(context.Background(), client, confirmation.Reference(tx.OrderNSU), &out)

	require.Equal(t, confirmation.OutcomeDeclined, outcome)
	require.ErrorIs(t, outcomeErr(outcome), errDeclined)
	require.Contains(t, out.String(), "Payment declined: Payment was declined by the issuer")

	txs, err := client.List(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, transaction.StatusDenied, txs[0].Status)
}

func TestWatch_ShouldStaySilentWhenCancelled(t *testing.T) {
	a, _ := newTestApp(t, 1, "")

	oracle := confirmation.StatusOracleFunc(func(ctx context.Context, ref confirmation.Reference) (transaction.Transaction, error) {
		return transaction.Transaction{Status: transaction.StatusPending}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	outcome := a.watch(ctx, oracle, "ORD-1", &out)

	require.Equal(t, confirmation.OutcomeCancelled, outcome)
	require.NoError(t, outcomeErr(outcome))
	require.NotContains(t, out.String(), "approved")
	require.NotContains(t, out.String(), "declined")
}

func TestWatch_ShouldTimeOutWhileStillPending(t *testing.T) {
	a, _ := newTestApp(t, 1, "")
	a.cfg.Poller.Deadline = 40 * time.Millisecond

	oracle := confirmation.StatusOracleFunc(func(ctx context.Context, ref confirmation.Reference) (transaction.Transaction, error) {
		return transaction.Transaction{Status: transaction.StatusPending}, nil
	})

	var out bytes.Buffer
	outcome := a.watch(context.Background(), oracle, "ORD-1", &out)

	require.Equal(t, confirmation.OutcomeTimedOut, outcome)
	require.ErrorIs(t, outcomeErr(outcome), errTimedOut)
	require.Contains(t, out.String(), "No confirmation received within 40ms")
}

func TestPresenter_ShouldReportOnlyFirstOutcome(t *testing.T) {
	var out bytes.Buffer
	p := newPresenter(&out, 3*time.Second, 10*time.Minute)

	p.probeError(context.DeadlineExceeded)
	p.declined("insufficient funds")
	p.timedOut()

	require.Equal(t, confirmation.OutcomeDeclined, <-p.done)
	require.Contains(t, out.String(), "Status check failed, retrying: context deadline exceeded")
	require.Contains(t, out.String(), "Payment declined: insufficient funds")
}

func TestFormatCents(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: 0, want: "R$ 0.00"},
		{in: 5, want: "R$ 0.05"},
		{in: 1550, want: "R$ 15.50"},
		{in: -1203, want: "-R$ 12.03"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, formatCents(tt.in))
	}
}

func TestSimulator_Close_ShouldStopDispatcherBeforeClosingDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.Server.DatabasePath = filepath.Join(t.TempDir(), "ipsim.db")
	cfg.Server.DispatchInterval = time.Millisecond

	sim, err := newSimulator(cfg.Server, logging.NewZapLogger(zap.NewNop()))
	require.NoError(t, err)
	sim.start()

	// let a few dispatch rounds hit the database
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, sim.Close())

	select {
	case <-sim.dispatchDone:
	default:
		t.Fatal("dispatcher still running after Close returned")
	}
	require.Error(t, sim.db.Ping())
}

func runPay(t *testing.T, status string) (string, error) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/transactions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"t1","amount":1000,"status":"` + status + `",
			"message":"settled at submission","orderNsu":"ORD-1-abcdef"}`))
	}))
	t.Cleanup(srv.Close)
	t.Setenv("IPSIM_CLIENT_BASE_URL", srv.URL)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"pay", "--amount", "1000"})

	err := cmd.Execute()
	return out.String(), err
}

func TestPay_WhenSubmissionIsAlreadyTerminal_ShouldExitOnStatus(t *testing.T) {
	out, err := runPay(t, "DENIED")
	require.ErrorIs(t, err, errDeclined)
	require.Contains(t, out, "Payment declined: settled at submission")

	out, err = runPay(t, "APPROVED")
	require.NoError(t, err)
	require.Contains(t, out, "Payment approved: settled at submission")
}
