package pichecker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// NewPushgatewayWriter pushes the latest status of every probe to a Prometheus Pushgateway.
// The gateway keeps a single value per series so nothing accumulates between ticks
func NewPushgatewayWriter(hostUrl string, proxyUrl string, instance string) (*pushgatewayWriter, error) {

	//	bare host:port would otherwise parse with the host as its scheme
	if !strings.Contains(hostUrl, "://") {
		hostUrl = "http://" + hostUrl
	}

	baseUrl, err := url.Parse(hostUrl)
	if err != nil {
		return nil, err
	}

	switch baseUrl.Scheme {
	case "http", "https":
		break
	default:
		return nil, fmt.Errorf("unsupported protocol scheme '%s'", baseUrl.Scheme)
	}

	if baseUrl.Host == "" {
		return nil, fmt.Errorf("missing url host")
	}

	client, err := newHttpClient(proxyUrl)
	if err != nil {
		return nil, err
	}

	this := &pushgatewayWriter{
		hostUrl: url.URL{
			Scheme: baseUrl.Scheme,
			Host:   baseUrl.Host,
			User:   baseUrl.User,
		},
		instance: instance,
		client:   client,
	}

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelPing()

	if err := this.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("unable to connect: %v", err)
	}

	return this, nil
}

type pushgatewayWriter struct {
	hostUrl  url.URL
	instance string
	client   *http.Client
}

func (this *pushgatewayWriter) Type() string {
	return "prometheus"
}

func (this *pushgatewayWriter) Version() string {
	return "v1"
}

func (this *pushgatewayWriter) Ping(ctx context.Context) error {

	pingUrl := this.hostUrl
	pingUrl.Path = "/api/v1/status"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pingUrl.String(), nil)
	if err != nil {
		return err
	}

	resp, err := this.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

func (this *pushgatewayWriter) WriteStatus(ctx context.Context, entry StatusEntry) error {

	if entry.Label == "" {
		return fmt.Errorf("empty entry label")
	}

	pushUrl := this.hostUrl
	pushUrl.Path = "/metrics/job/pichecker"

	var addLabel = func(key, val string) {
		pushUrl.Path += fmt.Sprintf("/%s/%s", url.PathEscape(key), url.PathEscape(val))
	}

	if this.instance != "" {
		addLabel("instance", this.instance)
	}

	addLabel("probe", entry.Label)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pushUrl.String(), strings.NewReader(encodeStatusEntry(entry)))
	if err != nil {
		return err
	}

	resp, err := this.client.Do(req)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {

		if body, err := io.ReadAll(resp.Body); err == nil {
			slog.Debug("PUSHGATEWAY: Request error",
				slog.String("body", string(body)))
		}

		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}

// encodeStatusEntry renders an entry in the Prometheus text exposition format.
// The failure kind goes into a label so that a POST replaces the previous
// series of the probe group instead of piling up stale kinds
func encodeStatusEntry(entry StatusEntry) string {

	var buff strings.Builder

	up := 0
	if entry.Up {
		up = 1
	}

	buff.WriteString("# TYPE probe_up gauge\n")
	fmt.Fprintf(&buff, "probe_up{failure=%q} %d\n", entry.Failure.String(), up)

	buff.WriteString("# TYPE probe_elapsed_ms gauge\n")
	fmt.Fprintf(&buff, "probe_elapsed_ms %s\n",
		strconv.FormatFloat(float64(entry.Elapsed)/float64(time.Millisecond), 'f', -1, 64))

	if entry.ReturnCode != nil {
		buff.WriteString("# TYPE probe_return_code gauge\n")
		fmt.Fprintf(&buff, "probe_return_code %d\n", *entry.ReturnCode)
	}

	return buff.String()
}
