package venue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// RemoteSigner is the default Signer: it delegates signing to an
// out-of-process service over HTTP rather than holding key material in
// this connector. The remote service receives the unsigned action JSON
// and the mainnet flag, and returns the envelope to POST to /exchange
// verbatim.
type RemoteSigner struct {
	http     *resty.Client
	endpoint string
}

// NewRemoteSigner builds a Signer that POSTs unsigned actions to endpoint.
func NewRemoteSigner(endpoint string) *RemoteSigner {
	return &RemoteSigner{
		http:     resty.New(),
		endpoint: endpoint,
	}
}

type remoteSignRequest struct {
	Action    json.RawMessage `json:"action"`
	IsMainnet bool            `json:"is_mainnet"`
}

// SignL1Action implements Signer.
func (s *RemoteSigner) SignL1Action(ctx context.Context, actionJSON []byte, isMainnet bool) ([]byte, error) {
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(remoteSignRequest{Action: actionJSON, IsMainnet: isMainnet}).
		Post(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("remote sign: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("remote sign: signer returned %s", resp.Status())
	}
	return resp.Body(), nil
}
