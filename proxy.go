package pichecker

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/net/proxy"
)

// resolveProxyUrl expands "$NAME" into the value of the NAME environment variable
func resolveProxyUrl(value string) (*url.URL, error) {

	if name, isRef := strings.CutPrefix(value, "$"); isRef {
		if value = os.Getenv(strings.ToUpper(name)); value == "" {
			return nil, fmt.Errorf("proxy env variable %s is not set", strings.ToUpper(name))
		}
	}

	if value == "" {
		return nil, errors.New("empty proxy url")
	}

	proxyUrl, err := url.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("url.Parse: %v", err)
	}

	if proxyUrl.Hostname() == "" || proxyUrl.Port() == "" {
		return nil, errors.New("proxy url must contain host and port")
	}

	return proxyUrl, nil
}

// pushgatewayDialer routes gateway connections through a SOCKS5 proxy
func pushgatewayDialer(value string) (proxy.ContextDialer, error) {

	proxyUrl, err := resolveProxyUrl(value)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(proxyUrl.Scheme) {
	case "socks", "socks5":
		proxyUrl.Scheme = "socks5"
	case "socks5h":
		break
	default:
		return nil, fmt.Errorf("unsupported proxy protocol: %v", proxyUrl.Scheme)
	}

	dialer, err := proxy.FromURL(proxyUrl, proxy.Direct)
	if err != nil {
		return nil, err
	}

	ctxDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy dialer %T does not support contexts", dialer)
	}

	return ctxDialer, nil
}

func newHttpClient(proxyUrl string) (*http.Client, error) {

	if proxyUrl == "" {
		return &http.Client{}, nil
	}

	dialer, err := pushgatewayDialer(proxyUrl)
	if err != nil {
		return nil, fmt.Errorf("proxy_url: %v", err)
	}

	return &http.Client{Transport: &http.Transport{
		DialContext: dialer.DialContext,
	}}, nil
}
