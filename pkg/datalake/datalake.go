package datalake

import (
	"context"
	"strings"

	"github.com/wisbric/mindconnect-agent/internal/cryptoutil"
	"github.com/wisbric/mindconnect-agent/internal/jsonutil"
	"github.com/wisbric/mindconnect-agent/internal/mclerror"
	"github.com/wisbric/mindconnect-agent/internal/telemetry"
	"github.com/wisbric/mindconnect-agent/internal/transport"
)

// Handle is the Data-Lake Processor. It borrows its Core's http client,
// client_id, and access token on every call rather than caching them, so it
// always observes the Core's latest onboarded/refreshed state (§5: "the
// data-lake path explicitly refreshes its local copy of the access token
// from the Core on each generation call").
type Handle struct {
	cfg          *Config
	uploadClient *transport.Client
}

// New builds a Handle over cfg. cfg.Core is required; the object-store
// certificate, if any, is wired into a dedicated upload client since the
// signed URL's host is generally not the agent's own gateway host.
func New(cfg *Config) (*Handle, error) {
	if cfg == nil || cfg.Core == nil {
		return nil, mclerror.New(mclerror.InvalidParameter, "data-lake configuration requires a core handle")
	}

	cert, err := cfg.certificate()
	if err != nil {
		return nil, err
	}
	uploadClient, err := transport.NewClientWithCertificate(cfg.Core.RequestTimeout(), cert, nil)
	if err != nil {
		return nil, err
	}

	return &Handle{cfg: cfg, uploadClient: uploadClient}, nil
}

type pathCandidate struct {
	obj    *Object
	suffix string
}

// GenerateUploadURLs mints signed URLs for one or more objects in a single
// batched call (POST /api/datalake/v3/generateUploadObjectUrls). Every
// in-scope object's cached SignedURL is cleared first; objects with an
// empty Path are silently skipped. If no object has a non-empty Path,
// returns InvalidParameter without issuing a request. On a response with
// fewer matches than in-scope objects, already-assigned URLs are kept and
// SignedUrlGenerationFail is returned.
func (h *Handle) GenerateUploadURLs(ctx context.Context, objects []*Object) error {
	for _, o := range objects {
		o.SignedURL = ""
	}

	clientID := h.cfg.Core.Identity().ClientID

	root := jsonutil.Initialize(jsonutil.KindObject)
	paths := jsonutil.Initialize(jsonutil.KindArray)

	var inScope []pathCandidate
	for _, o := range objects {
		if o.Path == "" {
			continue
		}
		entry := jsonutil.Initialize(jsonutil.KindObject)
		if err := entry.AddString("path", clientID+"/"+o.Path); err != nil {
			return mclerror.Wrap(mclerror.Fail, "building path entry", err)
		}
		if err := paths.AddItemToArray(entry); err != nil {
			return mclerror.Wrap(mclerror.Fail, "appending path entry", err)
		}
		inScope = append(inScope, pathCandidate{obj: o, suffix: o.Path})
	}
	if len(inScope) == 0 {
		return mclerror.New(mclerror.InvalidParameter, "no object has a non-empty path")
	}
	if err := root.AddObject("paths", paths); err != nil {
		return mclerror.Wrap(mclerror.Fail, "attaching paths array", err)
	}

	if h.cfg.SubtenantID != "" {
		if err := root.AddString("subtenantId", h.cfg.SubtenantID); err != nil {
			return mclerror.Wrap(mclerror.Fail, "attaching subtenantId", err)
		}
	}

	req := transport.NewRequest("POST", h.cfg.Core.Host()+"/api/datalake/v3/generateUploadObjectUrls", []byte(root.ToString()))
	req.Headers.Add("Content-Type", "application/json")
	req.Headers.Add("Authorization", "Bearer "+h.cfg.Core.AccessToken())
	req.Headers.Add("User-Agent", h.cfg.Core.UserAgentHeader())
	corr := cryptoutil.GUID()
	req.Headers.Add("Correlation-ID", corr)

	resp, err := h.cfg.Core.Transport().Send(ctx, req, corr, "generate_upload_urls")
	if err != nil {
		telemetry.RequestsTotal.WithLabelValues("generate_upload_urls", "transport_error").Inc()
		return err
	}
	if resp.StatusCode != 201 {
		telemetry.RequestsTotal.WithLabelValues("generate_upload_urls", string(resp.Kind())).Inc()
		return mclerror.Newf(resp.Kind(), "generate-upload-urls failed with status %d", resp.StatusCode)
	}

	if err := assignSignedURLs(resp.Body, clientID, inScope); err != nil {
		telemetry.RequestsTotal.WithLabelValues("generate_upload_urls", "parse_error").Inc()
		return err
	}

	telemetry.RequestsTotal.WithLabelValues("generate_upload_urls", "ok").Inc()

	for _, c := range inScope {
		if c.obj.SignedURL == "" {
			return mclerror.New(mclerror.SignedUrlGenerationFail, "not every object received a signed url")
		}
	}
	return nil
}

func assignSignedURLs(body []byte, clientID string, inScope []pathCandidate) error {
	root, err := jsonutil.Parse(body)
	if err != nil {
		return err
	}
	urls, ok := root.GetObjectItem("objectUrls")
	if !ok {
		return mclerror.New(mclerror.Fail, "response missing objectUrls")
	}

	prefix := clientID + "/"
	for i := 0; i < urls.GetArraySize(); i++ {
		item, err := urls.GetArrayItem(i)
		if err != nil {
			return err
		}
		pathValue, ok := item.GetObjectItem("path")
		if !ok {
			continue
		}
		path, err := pathValue.GetString()
		if err != nil {
			return err
		}
		urlValue, ok := item.GetObjectItem("signedUrl")
		if !ok {
			continue
		}
		signedURL, err := urlValue.GetString()
		if err != nil {
			return err
		}

		suffix := strings.TrimPrefix(path, prefix)
		for _, c := range inScope {
			if c.suffix == suffix && c.obj.SignedURL == "" {
				c.obj.SignedURL = signedURL
				break
			}
		}
	}
	return nil
}

// Upload streams obj's body to its SignedURL (PUT). Preconditions: Path,
// SignedURL, UploadCallback, and a positive Size are all present. Provider
// detection adds the Azure Blob x-ms-blob-type header when the signed URL's
// host ends in blob.core.windows.net.
func (h *Handle) Upload(ctx context.Context, obj *Object) error {
	if obj.Path == "" || obj.SignedURL == "" || obj.UploadCallback == nil || obj.Size <= 0 {
		return mclerror.New(mclerror.InvalidParameter, "upload requires path, signed_url, upload_callback, and a positive size")
	}

	body, err := obj.UploadCallback(ctx, obj.UserContext)
	if err != nil {
		return mclerror.Wrap(mclerror.Fail, "invoking upload callback", err)
	}

	req := transport.NewStreamingRequest("PUT", obj.SignedURL, body, obj.Size)
	if isAzureBlobHost(objectStoreHost(obj.SignedURL)) {
		req.Headers.Add("x-ms-blob-type", "BlockBlob")
	}
	corr := cryptoutil.GUID()
	req.Headers.Add("Correlation-ID", corr)

	resp, err := h.uploadClient.Send(ctx, req, corr, "upload")
	if err != nil {
		telemetry.RequestsTotal.WithLabelValues("upload", "transport_error").Inc()
		return err
	}
	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		telemetry.RequestsTotal.WithLabelValues("upload", string(resp.Kind())).Inc()
		return mclerror.Newf(resp.Kind(), "upload failed with status %d", resp.StatusCode)
	}

	telemetry.RequestsTotal.WithLabelValues("upload", "ok").Inc()
	telemetry.DataLakeUploadBytesTotal.Add(float64(obj.Size))
	return nil
}

const azureBlobHostSuffix = "blob.core.windows.net"

// objectStoreHost extracts the authority's host from a signed URL with a
// single-pass scan rather than a full URL parse (§9: "do not parse URLs
// with a heavyweight library"). It strips the scheme, any userinfo, the
// trailing path/query, and a port, leaving the bare host.
func objectStoreHost(signedURL string) string {
	rest := signedURL
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?"); i != -1 {
		rest = rest[:i]
	}
	if i := strings.LastIndex(rest, "@"); i != -1 {
		rest = rest[i+1:]
	}
	if i := strings.LastIndex(rest, ":"); i != -1 {
		rest = rest[:i]
	}
	return rest
}

// isAzureBlobHost reports whether host's trailing label matches Azure
// Blob's fixed suffix, via a plain ASCII suffix compare.
func isAzureBlobHost(host string) bool {
	return strings.HasSuffix(host, azureBlobHostSuffix)
}
