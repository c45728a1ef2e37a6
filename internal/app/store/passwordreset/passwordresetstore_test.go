// internal/app/store/passwordreset/passwordresetstore_test.go
package passwordreset_test

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ulsconnect/ulsconnect/internal/app/store/passwordreset"
	"github.com/ulsconnect/ulsconnect/internal/app/system/indexes"
	"github.com/ulsconnect/ulsconnect/internal/testutil"
)

func TestIssueAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatal(err)
	}
	store := passwordreset.New(db)
	user := primitive.NewObjectID()

	tok, err := store.Issue(ctx, user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}

	got, err := store.Consume(ctx, tok.Token)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if got != user {
		t.Errorf("user = %v, want %v", got, user)
	}

	// Single use.
	if _, err := store.Consume(ctx, tok.Token); !errors.Is(err, passwordreset.ErrInvalidToken) {
		t.Fatalf("second consume: got %v, want ErrInvalidToken", err)
	}
}

func TestIssueInvalidatesOlderTokens(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := passwordreset.New(db)
	user := primitive.NewObjectID()

	first, err := store.Issue(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Issue(ctx, user)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Consume(ctx, first.Token); !errors.Is(err, passwordreset.ErrInvalidToken) {
		t.Fatalf("old token: got %v, want ErrInvalidToken", err)
	}
	if _, err := store.Consume(ctx, second.Token); err != nil {
		t.Fatalf("newest token should work: %v", err)
	}
}

func TestConsumeUnknownToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	store := passwordreset.New(db)

	if _, err := store.Consume(ctx, "no-such-token"); !errors.Is(err, passwordreset.ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}
