package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/safeline/safeline/internal/apperror"
)

type owners map[string]bool

func (o owners) OwnerExists(_ context.Context, id string) (bool, error) {
	return o[id], nil
}

type brokenOwners struct{}

func (brokenOwners) OwnerExists(context.Context, string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestServiceReplaceAll(t *testing.T) {
	l := NewInMemory()
	svc := NewService(l, owners{"u1": true}, nil)
	ctx := context.Background()

	n, err := svc.ReplaceAll(ctx, "u1", ReplaceInput{Contacts: []Entry{
		{Name: " Mom ", Phone: " +91 98765 43210 "},
		{Name: "Dad", Phone: "022-2345-6789"},
	}})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 saved, got %d", n)
	}

	got, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].Name != "Mom" || got[0].Phone != "+91 98765 43210" {
		t.Fatalf("expected trimmed entry, got %+v", got[0])
	}

	n, err = svc.ReplaceAll(ctx, "u1", ReplaceInput{OwnerUserID: "u1", Contacts: []Entry{}})
	if err != nil || n != 0 {
		t.Fatalf("empty replace: n=%d err=%v", n, err)
	}
	if got, _ := svc.List(ctx, "u1"); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func TestServiceRejectsOtherOwner(t *testing.T) {
	l := NewInMemory()
	Seed(t, l, "u2", Entry{Name: "Keep", Phone: "100"})
	svc := NewService(l, owners{"u1": true, "u2": true}, nil)

	_, err := svc.ReplaceAll(context.Background(), "u1", ReplaceInput{OwnerUserID: "u2", Contacts: []Entry{}})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if got, _ := l.List(context.Background(), "u2"); len(got) != 1 {
		t.Fatalf("victim's contacts changed: %v", got)
	}
}

func TestServiceValidation(t *testing.T) {
	svc := NewService(NewInMemory(), owners{"u1": true}, nil)
	ctx := context.Background()

	cases := map[string]ReplaceInput{
		"nil contacts":  {},
		"missing name":  {Contacts: []Entry{{Phone: "100"}}},
		"missing phone": {Contacts: []Entry{{Name: "A"}}},
		"bad phone":     {Contacts: []Entry{{Name: "A", Phone: "call me"}}},
		"long phone":    {Contacts: []Entry{{Name: "A", Phone: "1234567890123456"}}},
		"too many":      {Contacts: make([]Entry, MaxContacts+1)},
	}
	for name, in := range cases {
		if _, err := svc.ReplaceAll(ctx, "u1", in); !errors.Is(err, apperror.ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", name, err)
		}
	}
}

func TestServiceUnknownOwner(t *testing.T) {
	svc := NewService(NewInMemory(), owners{}, nil)

	_, err := svc.ReplaceAll(context.Background(), "ghost", ReplaceInput{Contacts: []Entry{}})
	if !errors.Is(err, apperror.ErrInvalidInput) || !errors.Is(err, ErrUnknownOwner) {
		t.Fatalf("expected unknown owner invalid input, got %v", err)
	}
}

func TestServiceRequiresCaller(t *testing.T) {
	svc := NewService(NewInMemory(), owners{}, nil)

	if _, err := svc.ReplaceAll(context.Background(), "", ReplaceInput{OwnerUserID: "u1", Contacts: []Entry{}}); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := svc.List(context.Background(), ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestServiceOwnerLookupFailureIsInternal(t *testing.T) {
	svc := NewService(NewInMemory(), brokenOwners{}, nil)

	_, err := svc.ReplaceAll(context.Background(), "u1", ReplaceInput{Contacts: []Entry{}})
	if apperror.Status(err) != 500 {
		t.Fatalf("expected internal error, got %v", err)
	}
}
