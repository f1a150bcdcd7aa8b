// Package gender calls the external name-lookup service to classify a
// contact's gender from their full name.
package gender

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
)

// ErrClassificationUnresolved means the service answered but the status
// field was missing or carried a value other than MALE/FEMALE. There is no
// fallback code; the calling operation must fail.
var ErrClassificationUnresolved = fmt.Errorf("gender classification could not be resolved")

const soapAction = "http://www.qaddress.de/webservices/UCheckName"

const requestTemplate = `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance" xmlns:xsd="http://www.w3.org/2001/XMLSchema" xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <UCheckName xmlns="http://www.qaddress.de/webservices">
      <SourceName>
        <m_iCountryID>%d</m_iCountryID>
        <m_szName1>%s</m_szName1>
      </SourceName>
    </UCheckName>
  </soap:Body>
</soap:Envelope>`

type Client struct {
	serviceURL string
	httpClient *http.Client
}

func NewClient(serviceURL string) *Client {
	return &Client{
		serviceURL: serviceURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Classify sends the name to the lookup service and maps the response's
// SexCode element: MALE -> 1, FEMALE -> 2. Anything else is
// ErrClassificationUnresolved.
func (c *Client) Classify(ctx context.Context, countryID int, fullName string) (contact.GenderCode, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(fullName)); err != nil {
		return contact.GenderUnknown, fmt.Errorf("failed to escape name for request: %w", err)
	}
	body := fmt.Sprintf(requestTemplate, countryID, escaped.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL, strings.NewReader(body))
	if err != nil {
		return contact.GenderUnknown, fmt.Errorf("failed to build classification request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return contact.GenderUnknown, fmt.Errorf("classification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return contact.GenderUnknown, fmt.Errorf("classification service returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return contact.GenderUnknown, fmt.Errorf("failed to read classification response: %w", err)
	}

	return extractSexCode(respBody)
}

// extractSexCode finds the single SexCode element in the response document.
func extractSexCode(doc []byte) (contact.GenderCode, error) {
	decoder := xml.NewDecoder(bytes.NewReader(doc))
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return contact.GenderUnknown, fmt.Errorf("failed to parse classification response: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "SexCode" {
			continue
		}
		var value string
		if err := decoder.DecodeElement(&value, &start); err != nil {
			return contact.GenderUnknown, fmt.Errorf("failed to decode SexCode element: %w", err)
		}
		switch value {
		case "MALE":
			return contact.GenderMale, nil
		case "FEMALE":
			return contact.GenderFemale, nil
		default:
			return contact.GenderUnknown, fmt.Errorf("%w: unexpected SexCode %q", ErrClassificationUnresolved, value)
		}
	}
	return contact.GenderUnknown, fmt.Errorf("%w: SexCode element missing", ErrClassificationUnresolved)
}
