package security

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerateUserTokenUniqueUnderConcurrency(t *testing.T) {
	const n = 1000

	var mu sync.Mutex
	seen := make(map[string]struct{}, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, errGen := GenerateUserToken()
			if errGen != nil {
				t.Errorf("generate token: %v", errGen)
				return
			}
			mu.Lock()
			seen[token] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != n {
		t.Fatalf("expected %d unique tokens, got %d", n, len(seen))
	}
	for token := range seen {
		if !strings.HasPrefix(token, userTokenPrefix) {
			t.Fatalf("token missing prefix: %s", token)
		}
	}
}

func TestCheckPasswordRoundTrip(t *testing.T) {
	hash, errHash := HashPassword("s3cret")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"

	token, errGen := GenerateSessionToken(secret, 42, "alice", time.Hour)
	if errGen != nil {
		t.Fatalf("generate session token: %v", errGen)
	}

	claims, errParse := ParseSessionToken(secret, token)
	if errParse != nil {
		t.Fatalf("parse session token: %v", errParse)
	}
	if claims.UserID != 42 || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, errBad := ParseSessionToken("other-secret", token); errBad == nil {
		t.Fatalf("expected parse with wrong secret to fail")
	}
}

func TestRememberTokenCarriesUserToken(t *testing.T) {
	const secret = "test-secret"

	token, errGen := GenerateRememberToken(secret, 7, "adb_cafe", time.Hour)
	if errGen != nil {
		t.Fatalf("generate remember token: %v", errGen)
	}

	claims, errParse := ParseRememberToken(secret, token)
	if errParse != nil {
		t.Fatalf("parse remember token: %v", errParse)
	}
	if claims.UserID != 7 || claims.Token != "adb_cafe" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}
