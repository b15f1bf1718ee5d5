package client

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// DialConfig selects the transport security of the connection.
type DialConfig struct {
	Addr      string
	CACert    string // PEM bundle; empty means system roots
	Insecure  bool   // TLS without certificate verification (dev)
	Plaintext bool   // no TLS at all (local dev)
}

// Secure reports whether bearer tokens may travel over this connection.
func (c DialConfig) Secure() bool { return !c.Plaintext }

func loadTLS(caPath string, skipVerify bool) (credentials.TransportCredentials, error) {
	if skipVerify {
		return credentials.NewTLS(&tls.Config{InsecureSkipVerify: true}), nil
	}
	if caPath == "" {
		return credentials.NewClientTLSFromCert(nil, ""), nil
	}
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("bad CA cert")
	}
	return credentials.NewTLS(&tls.Config{RootCAs: pool}), nil
}

// Dial creates a client connection; the connection is established lazily.
func Dial(cfg DialConfig) (*grpc.ClientConn, error) {
	var creds credentials.TransportCredentials
	if cfg.Plaintext {
		creds = insecure.NewCredentials()
	} else {
		c, err := loadTLS(cfg.CACert, cfg.Insecure)
		if err != nil {
			return nil, err
		}
		creds = c
	}
	return grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(creds))
}

type bearerCreds struct {
	token  string
	secure bool
}

func (b bearerCreds) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + b.token}, nil
}

func (b bearerCreds) RequireTransportSecurity() bool { return b.secure }

// Bearer attaches token to a single call. With secure set the call fails
// on a plaintext connection instead of leaking the token.
func Bearer(token string, secure bool) grpc.CallOption {
	return grpc.PerRPCCredentials(bearerCreds{token: token, secure: secure})
}
