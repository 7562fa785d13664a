package sha256

import "testing"

func TestHashKnownVector(t *testing.T) {
	t.Parallel()

	got, err := New().Hash([]byte("abc"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("Hash(abc) = %s, want %s", got, want)
	}
	if Sum([]byte("abc")) != want {
		t.Fatal("Sum and Hash disagree")
	}
}
