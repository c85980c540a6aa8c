package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/google/uuid"

	"pixgate/internal/config"
)

var (
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// EncryptedData is the envelope stored for a sensitive field: the AES-GCM
// ciphertext plus the KMS-wrapped data key that produced it.
type EncryptedData struct {
	EncryptedValue string    `json:"encrypted_value"`
	EncryptedDEK   string    `json:"encrypted_dek"`
	KeyID          string    `json:"key_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type DataKey struct {
	Plaintext  []byte
	Ciphertext []byte
	KeyID      string
}

// Manager performs envelope encryption of sensitive payload fields (payer
// documents in relay audit records). With KMS disabled a locally generated
// key is used, which is acceptable only outside production.
type Manager struct {
	kmsClient *kms.Client
	config    *config.Config
	keyCache  sync.Map
}

func NewManager(cfg *config.Config, kmsClient *kms.Client) *Manager {
	return &Manager{kmsClient: kmsClient, config: cfg}
}

func (m *Manager) generateDataKey(ctx context.Context) (*DataKey, error) {
	if !m.config.KMS.Enabled || m.kmsClient == nil {
		return m.generateLocalKey()
	}

	result, err := m.kmsClient.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(m.config.KMS.KeyID),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate data key: %w", err)
	}

	return &DataKey{
		Plaintext:  result.Plaintext,
		Ciphertext: result.CiphertextBlob,
		KeyID:      m.config.KMS.KeyID,
	}, nil
}

func (m *Manager) generateLocalKey() (*DataKey, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate local key: %w", err)
	}
	return &DataKey{
		Plaintext:  key,
		Ciphertext: []byte(base64.StdEncoding.EncodeToString(key)),
		KeyID:      uuid.New().String(),
	}, nil
}

// EncryptField envelope-encrypts one sensitive value.
func (m *Manager) EncryptField(ctx context.Context, plaintext string) (*EncryptedData, error) {
	dataKey, err := m.generateDataKey(ctx)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(dataKey.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	m.keyCache.Store(dataKey.KeyID, dataKey.Plaintext)

	return &EncryptedData{
		EncryptedValue: base64.StdEncoding.EncodeToString(sealed),
		EncryptedDEK:   base64.StdEncoding.EncodeToString(dataKey.Ciphertext),
		KeyID:          dataKey.KeyID,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// DecryptField reverses EncryptField, unwrapping the data key through KMS
// (or the local cache when KMS is disabled).
func (m *Manager) DecryptField(ctx context.Context, data *EncryptedData) (string, error) {
	key, err := m.unwrapKey(ctx, data)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	sealed, err := base64.StdEncoding.DecodeString(data.EncryptedValue)
	if err != nil || len(sealed) < gcm.NonceSize() {
		return "", ErrDecryptionFailed
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func (m *Manager) unwrapKey(ctx context.Context, data *EncryptedData) ([]byte, error) {
	if cached, ok := m.keyCache.Load(data.KeyID); ok {
		return cached.([]byte), nil
	}

	if !m.config.KMS.Enabled || m.kmsClient == nil {
		// Local keys are recoverable from the base64 "ciphertext".
		raw, err := base64.StdEncoding.DecodeString(data.EncryptedDEK)
		if err != nil {
			return nil, ErrDecryptionFailed
		}
		key, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return nil, ErrDecryptionFailed
		}
		return key, nil
	}

	wrapped, err := base64.StdEncoding.DecodeString(data.EncryptedDEK)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	result, err := m.kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: wrapped})
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data key: %w", err)
	}

	m.keyCache.Store(data.KeyID, result.Plaintext)
	return result.Plaintext, nil
}

// ClearCache drops all cached plaintext data keys.
func (m *Manager) ClearCache() {
	m.keyCache.Range(func(k, _ interface{}) bool {
		m.keyCache.Delete(k)
		return true
	})
}
