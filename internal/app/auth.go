package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	DefaultAuthFile = "auth.secret"
	AuthRealm       = "Patro Edit Mode"
)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

var (
	errHashFormat    = errors.New("invalid hash format")
	errNotArgon2id   = errors.New("not an argon2id hash")
	errAuthLine      = errors.New("invalid auth file format (expected: username:hash)")
	errAuthAborted   = errors.New("aborted")
	errEmptyPassword = errors.New("password must not be empty")
)

// credentials is the single editor account; nil means edit mode is unprotected
type credentials struct {
	user string
	hash string
}

var editCredentials *credentials

// argonHash is a decoded $argon2id$v=19$m=..,t=..,p=..$salt$key string
type argonHash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (h argonHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func parseArgonHash(s string) (argonHash, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 {
		return argonHash{}, errHashFormat
	}
	if parts[1] != "argon2id" {
		return argonHash{}, errNotArgon2id
	}

	var h argonHash
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &threads); err != nil {
		return argonHash{}, fmt.Errorf("failed to parse hash parameters: %w", err)
	}
	h.threads = uint8(threads)

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return argonHash{}, fmt.Errorf("failed to decode salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return argonHash{}, fmt.Errorf("failed to decode hash: %w", err)
	}
	return h, nil
}

// HashPassword creates an Argon2id hash of the password with a random salt
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	h := argonHash{
		memory:  argon2Memory,
		time:    argon2Time,
		threads: argon2Threads,
		salt:    salt,
	}
	h.key = argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, argon2KeyLen)
	return h.String(), nil
}

// VerifyPassword checks password against an Argon2id hash in constant time
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parseArgonHash(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(h.key, computed) == 1, nil
}

// AuthFilePath returns PATRO_AUTH_FILE, or auth.secret next to the binary
func AuthFilePath() (string, error) {
	if p := GetEnv("PATRO_AUTH_FILE"); p != "" {
		return p, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

func parseAuthLine(line string) (*credentials, error) {
	user, hash, ok := strings.Cut(strings.TrimSpace(line), ":")
	if !ok || user == "" || hash == "" {
		return nil, errAuthLine
	}
	if _, err := parseArgonHash(hash); err != nil {
		return nil, fmt.Errorf("invalid hash for user %s: %w", user, err)
	}
	return &credentials{user: user, hash: hash}, nil
}

// LoadAuthCredentials loads the editor account. A missing file leaves edit mode
// unprotected for local development.
func LoadAuthCredentials() error {
	editCredentials = nil

	path, err := AuthFilePath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Println("╔════════════════════════════════════════════════════════════╗")
		log.Println("║  ⚠️  NO AUTH FILE FOUND - EDIT MODE UNPROTECTED!            ║")
		log.Println("║  For local development only.                               ║")
		log.Printf("║  Expected file: %-42s ║\n", path)
		log.Println("║  Create one with: patro hash-password                      ║")
		log.Println("╚════════════════════════════════════════════════════════════╝")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read auth file: %w", err)
	}

	creds, err := parseAuthLine(string(data))
	if err != nil {
		return err
	}
	editCredentials = creds

	log.Printf("✅ Basic Auth enabled for edit mode (user: %s, file: %s)", creds.user, path)
	return nil
}

// RequireAuth wraps an edit handler with Basic Auth against the editor account
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := editCredentials
		if creds == nil {
			next(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(creds.user)) == 1

		passMatch := false
		if ok && userMatch {
			var err error
			if passMatch, err = VerifyPassword(pass, creds.hash); err != nil {
				log.Printf("Error verifying password: %v", err)
				passMatch = false
			}
		}

		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", AuthRealm))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			log.Printf("⚠️  Failed auth attempt from %s (user: %s)", r.RemoteAddr, user)
			return
		}

		next(w, r)
	}
}

// CreateAuthFile writes username:hash to the auth file with mode 0400. When the
// file exists and overwrite is false, confirm decides whether to replace it.
func CreateAuthFile(username, password string, overwrite bool, confirm func(path string) bool) (string, error) {
	if password == "" {
		return "", errEmptyPassword
	}
	path, err := AuthFilePath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		if !overwrite && (confirm == nil || !confirm(path)) {
			return "", errAuthAborted
		}
		// 0400 files cannot be truncated in place
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	content := fmt.Sprintf("%s:%s\n", username, hash)
	if err := os.WriteFile(path, []byte(content), 0400); err != nil {
		return "", fmt.Errorf("failed to write auth file: %w", err)
	}
	return path, nil
}
