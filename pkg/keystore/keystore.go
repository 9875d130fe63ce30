// Package keystore implements KeyStore: Ed25519 keypair
// generation, signing/verification, Blake3 hashing and password
// derivation, JSON persistence, and backup export/import. Private key
// material is never rendered in a human-facing string; see Redacted.
//
// Grounded on the encrypt/derive/envelope shape of secrets.go and the
// mutex-guarded key-material discipline of ca.go, generalized from AES
// secret wrapping to Ed25519 signing
// keys.
package keystore

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/types"
)

const backupVersion uint32 = 1
const backupFormat = "nockit-wallet-backup"

// passwordDomainSeparator disambiguates Nockit's password-derived keys
// from any other Blake3 usage in the codebase.
const passwordDomainSeparator = "nockit/keystore/password-derive/v1"

// Generate creates a new Ed25519 KeyPair from an OS-provided
// cryptographically secure random seed.
func Generate() (types.KeyPair, error) {
	var seed [ed25519.SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return types.KeyPair{}, errs.Wrap(errs.Cryptographic, "generate key seed", err)
	}
	return fromSeed(seed), nil
}

// fromSeed derives the full KeyPair (public + seed) deterministically
// from a 32-byte seed using the standard Ed25519 curve.
func fromSeed(seed [32]byte) types.KeyPair {
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)

	var kp types.KeyPair
	copy(kp.Private[:], seed[:])
	copy(kp.Public[:], pub)
	return kp
}

// Sign returns the 64-byte raw Ed25519 signature of msg under priv.
func Sign(priv [32]byte, msg []byte) [64]byte {
	full := ed25519.NewKeyFromSeed(priv[:])
	sig := ed25519.Sign(full, msg)
	var out [64]byte
	copy(out[:], sig)
	return out
}

// Verify reports whether sig is a valid Ed25519 signature of msg under pub.
func Verify(pub [32]byte, msg []byte, sig [64]byte) bool {
	return ed25519.Verify(pub[:], msg, sig[:])
}

// Hash returns the 32-byte Blake3 digest of data.
func Hash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// HashToHex renders a Blake3 digest as lowercase hex.
func HashToHex(data []byte) string {
	h := Hash(data)
	return hex.EncodeToString(h[:])
}

// HashToBase58 renders a Blake3 digest as base58.
func HashToBase58(data []byte) string {
	h := Hash(data)
	return base58.Encode(h[:])
}

// DeriveFromPassword computes Blake3(password || salt || domain). No
// password-stretching KDF is applied; see DESIGN.md for why this is an
// intentional open trade-off, not an oversight.
func DeriveFromPassword(password, salt string) [32]byte {
	buf := make([]byte, 0, len(password)+len(salt)+len(passwordDomainSeparator))
	buf = append(buf, password...)
	buf = append(buf, salt...)
	buf = append(buf, passwordDomainSeparator...)
	return blake3.Sum256(buf)
}

// PublicBase58 renders a public key as a configuration-stable base58 string.
func PublicBase58(pub [32]byte) string {
	return base58.Encode(pub[:])
}

// keyFile is the on-disk JSON shape for Save/Load.
type keyFile struct {
	PublicB58  string `json:"public_base58"`
	PrivateHex string `json:"private_hex"`
}

// Save writes pair to path as JSON with public_base58/private_hex fields.
func Save(pair types.KeyPair, path string) error {
	kf := keyFile{
		PublicB58:  PublicBase58(pair.Public),
		PrivateHex: hex.EncodeToString(pair.Private[:]),
	}
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Cryptographic, "marshal key file", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.IO, "create key directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errs.Wrap(errs.IO, "write key file", err)
	}
	return nil
}

// Load reads a KeyPair written by Save. A document missing either
// field is rejected.
func Load(path string) (types.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.KeyPair{}, errs.Wrap(errs.IO, "read key file", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return types.KeyPair{}, errs.Wrap(errs.Parsing, "parse key file", err)
	}
	if kf.PublicB58 == "" || kf.PrivateHex == "" {
		return types.KeyPair{}, errs.New(errs.Cryptographic, "key file missing public_base58 or private_hex")
	}

	return decodeKeyFile(kf)
}

func decodeKeyFile(kf keyFile) (types.KeyPair, error) {
	privBytes, err := hex.DecodeString(kf.PrivateHex)
	if err != nil || len(privBytes) != 32 {
		return types.KeyPair{}, errs.New(errs.Cryptographic, "invalid private_hex in key file")
	}
	pubBytes, err := base58.Decode(kf.PublicB58)
	if err != nil || len(pubBytes) != 32 {
		return types.KeyPair{}, errs.New(errs.Cryptographic, "invalid public_base58 in key file")
	}

	var seed [32]byte
	copy(seed[:], privBytes)
	kp := fromSeed(seed)
	if !bytesEqual(kp.Public[:], pubBytes) {
		return types.KeyPair{}, errs.New(errs.Cryptographic, "public key does not match private seed")
	}
	return kp, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ExportBackup writes a backup envelope to
// dir/wallet_backup_YYYYmmddTHHMMSSZ.export and returns its path.
func ExportBackup(pair types.KeyPair, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(errs.IO, "create backup directory", err)
	}

	now := time.Now().UTC()
	envelope := types.BackupEnvelope{
		Version:    backupVersion,
		Format:     backupFormat,
		CreatedAt:  now,
		PublicB58:  PublicBase58(pair.Public),
		PrivateHex: hex.EncodeToString(pair.Private[:]),
		Metadata:   map[string]string{},
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.Cryptographic, "marshal backup envelope", err)
	}

	name := fmt.Sprintf("wallet_backup_%sZ.export", now.Format("20060102T150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", errs.Wrap(errs.IO, "write backup envelope", err)
	}
	return path, nil
}

// ImportBackup parses a backup envelope and returns the recovered
// KeyPair. The public key must re-derive from the private seed and
// match the stored public; mismatch is a "corrupt backup" error.
func ImportBackup(path string) (types.KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.KeyPair{}, errs.Wrap(errs.IO, "read backup envelope", err)
	}

	var envelope types.BackupEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return types.KeyPair{}, errs.Wrap(errs.Parsing, "parse backup envelope", err)
	}

	kp, err := decodeKeyFile(keyFile{PublicB58: envelope.PublicB58, PrivateHex: envelope.PrivateHex})
	if err != nil {
		return types.KeyPair{}, errs.Wrap(errs.Cryptographic, "corrupt backup", err)
	}
	return kp, nil
}

// Redacted renders a KeyPair for human-facing output (logs, --verbose
// detail) without ever emitting the private seed.
func Redacted(pair types.KeyPair) string {
	return fmt.Sprintf("KeyPair{public: %s, private: <redacted>}", PublicBase58(pair.Public))
}
