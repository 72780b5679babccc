package credentials

import "testing"

func TestResolveWithPassword(t *testing.T) {
	creds, err := Resolve("r1", Source{Username: "admin", Password: "swordfish"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if creds.Username != "admin" || creds.Password != "swordfish" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
	if creds.Signer != nil {
		t.Errorf("expected no signer when password is set")
	}
}

func TestResolveMissingUsername(t *testing.T) {
	_, err := Resolve("r1", Source{Password: "swordfish"})
	if err == nil {
		t.Fatal("expected error for missing username")
	}
}

func TestResolveInvalidPrivateKey(t *testing.T) {
	_, err := Resolve("r1", Source{Username: "admin", PrivateKeyPEM: []byte("not a key")})
	if err == nil {
		t.Fatal("expected error for malformed private key")
	}
}
