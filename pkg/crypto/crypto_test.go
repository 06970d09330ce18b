package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Helper function to generate keypairs
func generateKeypair() (ed25519.PublicKey, ed25519.PrivateKey) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	return pub, priv
}

func mustKeypair(t testing.TB) *Keypair {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	return kp
}

// transferTx builds an unsigned one-instruction transaction from -> to.
func transferTx(t testing.TB, from, to types.Pubkey) *types.Transaction {
	inst := &types.Instruction{
		ProgramID: types.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(from, true, true),
			types.NewAccountMeta(to, false, true),
		},
		Data: []byte{2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	msg, err := types.NewMessage(from, []*types.Instruction{inst}, sha256.Sum256([]byte("blockhash")))
	if err != nil {
		t.Fatalf("new message: %v", err)
	}
	return &types.Transaction{Message: *msg}
}

func TestVerifySignature_Valid(t *testing.T) {
	pub, priv := generateKeypair()
	message := []byte("test message")
	signature := ed25519.Sign(priv, message)

	if !VerifySignature(pub, message, signature) {
		t.Error("valid signature should verify")
	}
}

func TestVerifySignature_InvalidSignature(t *testing.T) {
	pub, priv := generateKeypair()
	message := []byte("test message")
	signature := ed25519.Sign(priv, message)

	// Corrupt the signature
	signature[0] ^= 0xff

	if VerifySignature(pub, message, signature) {
		t.Error("corrupted signature should not verify")
	}
}

func TestVerifySignature_InvalidLengths(t *testing.T) {
	pub, priv := generateKeypair()
	message := []byte("test message")
	signature := ed25519.Sign(priv, message)

	if VerifySignature(pub[:31], message, signature) {
		t.Error("short public key should not verify")
	}
	if VerifySignature(pub, message, signature[:63]) {
		t.Error("short signature should not verify")
	}
}

func TestVerifySignatureStrict(t *testing.T) {
	pub, priv := generateKeypair()
	message := []byte("test message")
	signature := ed25519.Sign(priv, message)

	if err := VerifySignatureStrict(pub, message, signature); err != nil {
		t.Errorf("valid signature should verify: %v", err)
	}
	if err := VerifySignatureStrict(pub[:10], message, signature); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("expected ErrInvalidPublicKey, got %v", err)
	}
	if err := VerifySignatureStrict(pub, message, signature[:10]); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifySignatureStrict(pub, []byte("other"), signature); !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("expected ErrVerificationFailed, got %v", err)
	}
}

func TestVerifySignatureStrict_OffCurveKey(t *testing.T) {
	_, priv := generateKeypair()
	message := []byte("m")
	signature := ed25519.Sign(priv, message)

	offCurve := 0
	for i := 0; i < 64; i++ {
		candidate := types.SHA256([]byte{byte(i)})
		if errors.Is(VerifySignatureStrict(candidate[:], message, signature), ErrInvalidPublicKey) {
			offCurve++
		}
	}
	if offCurve == 0 {
		t.Error("expected some hashes to fall off the curve")
	}
}

func TestKeypairFromSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, SeedSize)
	a, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	b, err := KeypairFromSeed(seed)
	if err != nil {
		t.Fatal(err)
	}
	if a.Pubkey() != b.Pubkey() {
		t.Error("same seed should give the same key")
	}
	if _, err := KeypairFromSeed(seed[:5]); !errors.Is(err, ErrInvalidPrivateKey) {
		t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
	}
}

func TestKeypairFromBytes_Mismatch(t *testing.T) {
	kp := mustKeypair(t)
	raw := kp.Bytes()
	raw[40] ^= 1
	if _, err := KeypairFromBytes(raw); !errors.Is(err, ErrInvalidPrivateKey) {
		t.Errorf("expected ErrInvalidPrivateKey, got %v", err)
	}
}

func TestKeypairSaveLoad(t *testing.T) {
	kp := mustKeypair(t)
	path := filepath.Join(t.TempDir(), "id.json")
	if err := kp.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadKeypair(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Pubkey() != kp.Pubkey() {
		t.Error("loaded keypair differs")
	}

	msg := []byte("hello")
	sig := loaded.Sign(msg)
	pk := kp.Pubkey()
	if !VerifySignature(pk[:], msg, sig[:]) {
		t.Error("signature of loaded keypair should verify")
	}
}

func TestSignAndVerifyTransaction(t *testing.T) {
	from := mustKeypair(t)
	to := mustKeypair(t)
	tx := transferTx(t, from.Pubkey(), to.Pubkey())

	if err := SignTransaction(tx); !errors.Is(err, ErrMissingSigner) {
		t.Errorf("expected ErrMissingSigner, got %v", err)
	}
	if err := SignTransaction(tx, from); err != nil {
		t.Fatal(err)
	}
	if err := VerifyTransaction(tx); err != nil {
		t.Errorf("valid transaction should verify: %v", err)
	}

	tx.Message.Instructions[0].Data[4] = 1
	err := VerifyTransaction(tx)
	var verr *TransactionVerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected TransactionVerificationError, got %v", err)
	}
	if verr.SignatureIndex != 0 || !errors.Is(err, ErrVerificationFailed) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVerifyTransaction_Malformed(t *testing.T) {
	if err := VerifyTransaction(nil); !errors.Is(err, ErrMissingMessage) {
		t.Errorf("expected ErrMissingMessage, got %v", err)
	}

	kp := mustKeypair(t)
	tx := transferTx(t, kp.Pubkey(), mustKeypair(t).Pubkey())
	if err := VerifyTransaction(tx); !errors.Is(err, ErrNoSignatures) {
		t.Errorf("expected ErrNoSignatures, got %v", err)
	}

	tx.Signatures = make([]types.Signature, 2)
	if err := VerifyTransaction(tx); !errors.Is(err, ErrSignatureCountMismatch) {
		t.Errorf("expected ErrSignatureCountMismatch, got %v", err)
	}
}

func TestVerifyTransaction_OffCurveSigner(t *testing.T) {
	var payer types.Pubkey
	for i := 0; ; i++ {
		candidate := types.Pubkey(types.SHA256([]byte{byte(i), 'k'}))
		if errors.Is(VerifySignatureStrict(candidate[:], nil, make([]byte, SignatureSize)), ErrInvalidPublicKey) {
			payer = candidate
			break
		}
	}
	tx := transferTx(t, payer, mustKeypair(t).Pubkey())
	tx.Signatures = make([]types.Signature, 1)

	err := VerifyTransaction(tx)
	var verr *TransactionVerificationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected TransactionVerificationError, got %v", err)
	}
	if !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("expected ErrInvalidPublicKey, got %v", err)
	}
}

func TestVerifyTransactionBatch(t *testing.T) {
	var txs []*types.Transaction
	for i := 0; i < 4; i++ {
		kp := mustKeypair(t)
		tx := transferTx(t, kp.Pubkey(), mustKeypair(t).Pubkey())
		if err := SignTransaction(tx, kp); err != nil {
			t.Fatal(err)
		}
		txs = append(txs, tx)
	}
	txs[2].Signatures[0][0] ^= 0xff

	errs := VerifyTransactionBatch(txs)
	if len(errs) != len(txs) {
		t.Fatalf("expected %d results, got %d", len(txs), len(errs))
	}
	for i, err := range errs {
		if i == 2 {
			if !errors.Is(err, ErrVerificationFailed) {
				t.Errorf("tx %d: expected failure, got %v", i, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("tx %d: %v", i, err)
		}
	}
}

func TestDigest(t *testing.T) {
	data := []byte("the quick brown fox")
	d := NewDigest()
	d.Write(data[:4])
	d.Write(data[4:])
	if d.Sum() != Hash(data) {
		t.Error("incremental hash should match one-shot hash")
	}
	if d.Len() != int64(len(data)) {
		t.Errorf("Len = %d, want %d", d.Len(), len(data))
	}

	hash, n, err := HashStream(bytes.NewReader(data))
	if err != nil || hash != Hash(data) || n != int64(len(data)) {
		t.Errorf("HashStream = %s, %d, %v", hash.String(), n, err)
	}
}

func BenchmarkVerifyTransaction(b *testing.B) {
	kp := mustKeypair(b)
	tx := transferTx(b, kp.Pubkey(), mustKeypair(b).Pubkey())
	if err := SignTransaction(tx, kp); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = VerifyTransaction(tx)
	}
}
