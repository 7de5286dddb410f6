//go:build integration

package firestore_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	pconfig "github.com/quickfynd/api/internal/platform/config"
	pfirestore "github.com/quickfynd/api/internal/platform/firestore"
)

type storeListing struct {
	Title string `firestore:"title"`
	Stock int    `firestore:"stock"`
}

func TestProviderAndRepositoryIntegration(t *testing.T) {
	endpoint := startEmulator(t)

	provider := pfirestore.NewProvider(pconfig.FirestoreConfig{
		ProjectID:    "quickfynd-test",
		EmulatorHost: endpoint,
	})
	t.Cleanup(func() {
		_ = provider.Close(context.Background())
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := provider.Client(ctx)
	if err != nil {
		t.Fatalf("expected firestore client, got error: %v", err)
	}
	if client == nil {
		t.Fatalf("provider returned nil client")
	}

	repo := pfirestore.NewBaseRepository[storeListing](provider, "listings", nil, nil)

	t.Run("set and get round trip", func(t *testing.T) {
		if _, err := repo.Set(ctx, "listing-1", storeListing{Title: "steel bottle", Stock: 4}); err != nil {
			t.Fatalf("set failed: %v", err)
		}
		doc, err := repo.Get(ctx, "listing-1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if doc.ID != "listing-1" {
			t.Fatalf("expected id listing-1, got %s", doc.ID)
		}
		if doc.Data.Title != "steel bottle" || doc.Data.Stock != 4 {
			t.Fatalf("unexpected data: %#v", doc.Data)
		}
		if doc.UpdateTime.IsZero() {
			t.Fatalf("expected update time to be set")
		}
	})

	t.Run("field update", func(t *testing.T) {
		if _, err := repo.Update(ctx, "listing-1", []firestore.Update{{Path: "stock", Value: 9}}); err != nil {
			t.Fatalf("update failed: %v", err)
		}
		doc, err := repo.Get(ctx, "listing-1")
		if err != nil {
			t.Fatalf("get after update failed: %v", err)
		}
		if doc.Data.Stock != 9 {
			t.Fatalf("expected stock=9, got %d", doc.Data.Stock)
		}
	})

	t.Run("query returns stored documents", func(t *testing.T) {
		docs, err := repo.Query(ctx, nil)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}
		if len(docs) != 1 {
			t.Fatalf("expected 1 document, got %d", len(docs))
		}
	})

	t.Run("missing document classifies as not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		if err == nil {
			t.Fatalf("expected not found error")
		}
		type classifier interface{ IsNotFound() bool }
		var cls classifier
		if !errors.As(err, &cls) {
			t.Fatalf("expected repository error, got %v", err)
		}
		if !cls.IsNotFound() {
			t.Fatalf("expected not found classification")
		}
	})

	t.Run("transactional increment", func(t *testing.T) {
		if err := provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
			ref, err := repo.DocumentRef(ctx, "listing-1")
			if err != nil {
				return err
			}
			snap, err := tx.Get(ref)
			if err != nil {
				return err
			}
			var listing storeListing
			if err := snap.DataTo(&listing); err != nil {
				return err
			}
			listing.Stock++
			return tx.Set(ref, listing)
		}); err != nil {
			t.Fatalf("transaction failed: %v", err)
		}

		doc, err := repo.Get(ctx, "listing-1")
		if err != nil {
			t.Fatalf("get after transaction failed: %v", err)
		}
		if doc.Data.Stock != 10 {
			t.Fatalf("expected stock=10 after txn, got %d", doc.Data.Stock)
		}
	})

	t.Run("cancelled context aborts transaction", func(t *testing.T) {
		cancelled, cancelTxn := context.WithCancel(context.Background())
		cancelTxn()
		err := provider.RunTransaction(cancelled, func(ctx context.Context, tx *firestore.Transaction) error {
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled error, got %v", err)
		}
	})
}

const emulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

// startEmulator launches a Firestore emulator container, waits for it to
// accept connections, registers cleanup and returns its host:port. The test
// is skipped when docker is unavailable.
func startEmulator(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available: " + err.Error())
	}
	infoCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := exec.CommandContext(infoCtx, "docker", "info").Run(); err != nil {
		t.Skip("docker daemon unavailable: " + err.Error())
	}

	port := reserveLocalPort(t)
	endpoint := fmt.Sprintf("127.0.0.1:%d", port)

	out, err := exec.Command("docker",
		"run", "-d", "--rm",
		"-p", fmt.Sprintf("%d:8080", port),
		emulatorImage,
		"gcloud", "beta", "emulators", "firestore", "start",
		"--host-port=0.0.0.0:8080",
		"--quiet",
	).CombinedOutput()
	if err != nil {
		t.Fatalf("failed to start firestore emulator: %v - %s", err, string(out))
	}
	containerID := strings.TrimSpace(string(out))
	if containerID == "" {
		t.Fatalf("docker returned empty container id")
	}
	if len(containerID) > 12 {
		containerID = containerID[:12]
	}
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = exec.CommandContext(stopCtx, "docker", "stop", containerID).Run()
	})

	awaitEndpoint(t, endpoint, 30*time.Second)
	return endpoint
}

func reserveLocalPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("unable to allocate port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func awaitEndpoint(t *testing.T, endpoint string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", endpoint, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		lastErr = err
		time.Sleep(250 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("timeout waiting for endpoint")
	}
	t.Fatalf("emulator did not become ready: %v", lastErr)
}
