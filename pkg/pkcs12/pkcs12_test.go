package pkcs12

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gopkcs12 "software.sslmate.com/src/go-pkcs12"
)

// testPFX gera um certificado autoassinado e o empacota como PKCS12
func testPFX(t *testing.T, notBefore, notAfter time.Time, password string) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1001),
		Subject: pkix.Name{
			CommonName:   "SUPERMERCADO EL SOL SAS",
			Organization: []string{"Supermercado El Sol"},
		},
		NotBefore: notBefore,
		NotAfter:  notAfter,
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	certificate, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pfxData, err := gopkcs12.Modern.Encode(key, certificate, nil, password)
	require.NoError(t, err)
	return pfxData
}

func TestValidate(t *testing.T) {
	now := time.Now()
	pfxData := testPFX(t, now.Add(-time.Hour), now.Add(365*24*time.Hour), "senha123")

	info, err := Validate(pfxData, "senha123")
	require.NoError(t, err)

	assert.Contains(t, info.Subject, "SUPERMERCADO EL SOL SAS")
	assert.NotEmpty(t, info.Issuer)
	assert.Equal(t, big.NewInt(1001).Text(16), info.SerialHex)
	assert.True(t, info.NotAfter.After(now))
}

func TestValidateWrongPassword(t *testing.T) {
	now := time.Now()
	pfxData := testPFX(t, now.Add(-time.Hour), now.Add(time.Hour), "senha123")

	_, err := Validate(pfxData, "senha-errada")
	assert.ErrorIs(t, err, ErrInvalidPKCS12)
}

func TestValidateGarbageData(t *testing.T) {
	_, err := Validate([]byte("isto não é um p12"), "senha123")
	assert.ErrorIs(t, err, ErrInvalidPKCS12)
}

func TestValidateExpiredCertificate(t *testing.T) {
	now := time.Now()
	pfxData := testPFX(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour), "senha123")

	_, err := Validate(pfxData, "senha123")
	assert.ErrorIs(t, err, ErrCertificateExpired)
}

func TestValidateNotYetValidCertificate(t *testing.T) {
	now := time.Now()
	pfxData := testPFX(t, now.Add(24*time.Hour), now.Add(48*time.Hour), "senha123")

	_, err := Validate(pfxData, "senha123")
	assert.ErrorIs(t, err, ErrCertificateNotYet)
}

func TestToPEM(t *testing.T) {
	now := time.Now()
	pfxData := testPFX(t, now.Add(-time.Hour), now.Add(time.Hour), "senha123")

	blocks, err := ToPEM(pfxData, "senha123")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "CERTIFICATE", blocks[0].Type)
	assert.Equal(t, "PRIVATE KEY", blocks[1].Type)
}
