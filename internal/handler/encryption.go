package handler

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbayedev/immoka/internal/apperr"
)

// PayloadCipher encrypts response bodies with AES-GCM. The nonce is
// prepended to the ciphertext and the whole blob is base64-encoded.
type PayloadCipher struct {
	aead cipher.AEAD
}

// NewPayloadCipher creates a cipher from a 32-byte key.
func NewPayloadCipher(key string) (*PayloadCipher, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to init GCM: %w", err)
	}
	return &PayloadCipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext).
func (p *PayloadCipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := p.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (p *PayloadCipher) Decrypt(encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid payload encoding: %w", err)
	}
	if len(sealed) < p.aead.NonceSize() {
		return nil, fmt.Errorf("payload too short")
	}
	nonce, ciphertext := sealed[:p.aead.NonceSize()], sealed[p.aead.NonceSize():]
	plaintext, err := p.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt payload: %w", err)
	}
	return plaintext, nil
}

type encryptingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *encryptingWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *encryptingWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

// encryptedRequest is the wrapper clients send when the request body
// itself is encrypted.
type encryptedRequest struct {
	EncryptedData string `json:"encryptedData"`
}

// decryptRequestBody replaces an {"encryptedData": "..."} JSON body with
// its decrypted content before the handlers bind it. Plain bodies pass
// through untouched.
func decryptRequestBody(c *gin.Context, cipher *PayloadCipher) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if !strings.HasPrefix(c.ContentType(), "application/json") {
		return nil
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	var wrapped encryptedRequest
	if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.EncryptedData == "" {
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		return nil
	}

	plaintext, err := cipher.Decrypt(wrapped.EncryptedData)
	if err != nil {
		return err
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(plaintext))
	c.Request.ContentLength = int64(len(plaintext))
	return nil
}

// EncryptionMiddleware decrypts {"encryptedData": ...} request bodies and
// replaces JSON response bodies with an encrypted payload wrapper. Response
// encryption is opt-in through the X-Encrypted-Response header.
func EncryptionMiddleware(cipher *PayloadCipher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cipher == nil {
			c.Next()
			return
		}

		if err := decryptRequestBody(c, cipher); err != nil {
			respondError(c, logger, apperr.Validation("Données chiffrées invalides").WithCause(err))
			return
		}

		if c.GetHeader("X-Encrypted-Response") != "1" {
			c.Next()
			return
		}

		writer := &encryptingWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Next()
		c.Writer = writer.ResponseWriter

		contentType := writer.Header().Get("Content-Type")
		if !strings.HasPrefix(contentType, "application/json") {
			_, _ = writer.ResponseWriter.Write(writer.body.Bytes())
			return
		}

		encrypted, err := cipher.Encrypt(writer.body.Bytes())
		if err != nil {
			logger.Error("failed to encrypt response", zap.Error(err))
			_, _ = writer.ResponseWriter.Write(writer.body.Bytes())
			return
		}

		writer.Header().Set("X-Encrypted-Response", "1")
		payload := fmt.Sprintf(`{"payload":%q}`, encrypted)
		writer.Header().Set("Content-Length", fmt.Sprintf("%d", len(payload)))
		if writer.Status() == 0 {
			writer.WriteHeader(http.StatusOK)
		}
		_, _ = writer.ResponseWriter.Write([]byte(payload))
	}
}
