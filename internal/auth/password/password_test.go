package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("s3cret-pass1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !Verify("s3cret-pass1", encoded) {
		t.Fatal("expected matching password to verify")
	}
	if Verify("wrong-pass", encoded) {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$argon2id$v=19$m=x,t=1,p=4$salt$hash"} {
		if Verify("anything", encoded) {
			t.Fatalf("expected malformed hash %q to fail verification", encoded)
		}
	}
}
