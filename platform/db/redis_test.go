package db

import "testing"

func TestRedisOptions(t *testing.T) {
	opt, err := redisOptions("redis://:secret@localhost:6380/2", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.Password != "secret" || opt.DB != 2 {
		t.Fatalf("unexpected options: addr=%s db=%d", opt.Addr, opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Fatal("expected no TLS for redis:// URL")
	}

	opt, err = redisOptions("rediss://localhost:6380", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected insecure TLS config")
	}

	opt, err = redisOptions("redis://localhost:6379", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatal("expected TLS to be forced when insecure is set")
	}

	if _, err := redisOptions("://bad", false); err == nil {
		t.Fatal("expected error for malformed URL")
	}
}
