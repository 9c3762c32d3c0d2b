package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNewLineOutbound_RequiresToken(t *testing.T) {
	if _, err := NewLineOutbound("  ", "", time.Second); err == nil {
		t.Error("NewLineOutbound() error = nil, want error for empty token")
	}
}

func TestLineOutbound_TruncatesLongText(t *testing.T) {
	line := &fakeLine{}
	srv := httptest.NewServer(line)
	defer srv.Close()

	o, err := NewLineOutbound("tok", srv.URL+"/", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	long := strings.Repeat("ก", maxTextRunes+20)
	if err := o.Reply(context.Background(), "R1", long); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}

	if len(line.replies) != 1 {
		t.Fatalf("calls = %d, want 1", len(line.replies))
	}
	if n := utf8.RuneCountInString(line.replies[0].Messages[0].Text); n != maxTextRunes {
		t.Errorf("sent %d runes, want %d", n, maxTextRunes)
	}
}

func TestLineOutbound_EmptyReplyToken(t *testing.T) {
	line := &fakeLine{}
	srv := httptest.NewServer(line)
	defer srv.Close()

	o, err := NewLineOutbound("tok", srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Reply(context.Background(), "", "hi"); err == nil {
		t.Error("Reply() error = nil, want error for empty reply token")
	}
	if len(line.replies) != 0 {
		t.Errorf("calls = %d, want 0", len(line.replies))
	}
}

func TestLineOutbound_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"Invalid reply token"}`))
	}))
	defer srv.Close()

	o, err := NewLineOutbound("tok", srv.URL, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Reply(context.Background(), "expired", "hi"); err == nil {
		t.Error("Reply() error = nil, want error on 400")
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("สวัสดี", 3); got != "สวั" {
		t.Errorf("truncateRunes() = %q, want สวั", got)
	}
	if got := truncateRunes("abc", 10); got != "abc" {
		t.Errorf("truncateRunes() = %q, want abc", got)
	}
}
