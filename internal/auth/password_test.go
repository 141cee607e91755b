package auth

import "testing"

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("secret1", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash equals plaintext")
	}

	tests := []struct {
		name    string
		hashed  string
		plain   string
		wantErr bool
	}{
		{name: "matching password", hashed: hash, plain: "secret1", wantErr: false},
		{name: "wrong password", hashed: hash, plain: "secret2", wantErr: true},
		{name: "invalid hash", hashed: "not-a-hash", plain: "secret1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ComparePassword(tt.hashed, tt.plain)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ComparePassword err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHashPasswordCostFallback(t *testing.T) {
	hash, err := HashPassword("secret1", 0)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hash, "secret1"); err != nil {
		t.Fatalf("ComparePassword: %v", err)
	}
}
