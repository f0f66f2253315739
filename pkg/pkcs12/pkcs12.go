package pkcs12

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"time"

	"software.sslmate.com/src/go-pkcs12"
)

var (
	ErrCertificateExpired = errors.New("certificado digital expirado")
	ErrCertificateNotYet  = errors.New("certificado digital ainda não é válido")
	ErrMissingPrivateKey  = errors.New("arquivo PKCS12 sem chave privada")
	ErrMissingCertificate = errors.New("arquivo PKCS12 sem certificado")
	ErrInvalidPKCS12      = errors.New("arquivo PKCS12 inválido ou senha incorreta")
)

// CertificateInfo resume o certificado de assinatura digital do tenant
type CertificateInfo struct {
	Subject   string    `json:"subject"`
	Issuer    string    `json:"issuer"`
	SerialHex string    `json:"serial_hex"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
}

// Validate decodifica e valida um certificado PKCS12 (.p12) usado na
// assinatura de documentos eletrônicos. Verifica senha, presença de chave
// privada e vigência.
func Validate(pfxData []byte, password string) (*CertificateInfo, error) {
	privateKey, certificate, _, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, ErrInvalidPKCS12
	}

	if certificate == nil {
		return nil, ErrMissingCertificate
	}
	if privateKey == nil {
		return nil, ErrMissingPrivateKey
	}

	now := time.Now()
	if now.After(certificate.NotAfter) {
		return nil, ErrCertificateExpired
	}
	if now.Before(certificate.NotBefore) {
		return nil, ErrCertificateNotYet
	}

	return &CertificateInfo{
		Subject:   certificate.Subject.String(),
		Issuer:    certificate.Issuer.String(),
		SerialHex: certificate.SerialNumber.Text(16),
		NotBefore: certificate.NotBefore,
		NotAfter:  certificate.NotAfter,
	}, nil
}

// ToPEM converte um certificado PKCS12 para blocos PEM
func ToPEM(pfxData []byte, password string) ([]*pem.Block, error) {
	// Decodificar o arquivo PKCS12
	privateKey, certificate, caCerts, err := pkcs12.DecodeChain(pfxData, password)
	if err != nil {
		return nil, err
	}

	// Criar slice para armazenar os blocos PEM
	var blocks []*pem.Block

	// Adicionar o certificado principal
	if certificate != nil {
		blocks = append(blocks, &pem.Block{
			Type:  "CERTIFICATE",
			Bytes: certificate.Raw,
		})
	}

	// Adicionar certificados da cadeia (CA)
	for _, cert := range caCerts {
		blocks = append(blocks, &pem.Block{
			Type:  "CERTIFICATE",
			Bytes: cert.Raw,
		})
	}

	// Adicionar chave privada se disponível
	if privateKey != nil {
		pkData, err := x509.MarshalPKCS8PrivateKey(privateKey)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, &pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: pkData,
		})
	}

	return blocks, nil
}
