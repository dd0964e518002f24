package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ProgressCallback is called to report progress while fetching
type ProgressCallback func(current, total int, message string)

// GmailHandler fetches spreadsheet attachments from Gmail
type GmailHandler struct {
	service    *gmail.Service
	uploadsDir string
	progressCb ProgressCallback
}

// NewGmailHandler creates a new Gmail handler. The OAuth token is cached as
// token.json next to the credentials file.
func NewGmailHandler(credentialsPath, uploadsDir string) (*GmailHandler, error) {
	return NewGmailHandlerWithCallback(credentialsPath, uploadsDir, nil)
}

// NewGmailHandlerWithCallback creates a Gmail handler that reports fetch progress
func NewGmailHandlerWithCallback(credentialsPath, uploadsDir string, cb ProgressCallback) (*GmailHandler, error) {
	ctx := context.Background()

	if credentialsPath == "" {
		credentialsPath = "credentials.json"
	}

	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	tokFile := filepath.Join(filepath.Dir(credentialsPath), "token.json")
	client, err := getClient(ctx, config, tokFile)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailHandler{
		service:    srv,
		uploadsDir: uploadsDir,
		progressCb: cb,
	}, nil
}

// getClient retrieves a token, saves it, then returns the generated client
func getClient(ctx context.Context, config *oauth2.Config, tokFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokFile)
	if err != nil {
		tok, err = getTokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokFile, tok); err != nil {
			log.Printf("Unable to cache oauth token: %v", err)
		}
	}
	return config.Client(ctx, tok), nil
}

// getTokenFromWeb requests a token from the web
func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	log.Printf("Saving credential file to: %s", path)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

func (gh *GmailHandler) reportProgress(current, total int, message string) {
	if gh.progressCb != nil {
		gh.progressCb(current, total, message)
	}
}

// FetchSpreadsheet downloads the newest spreadsheet attachment of a message with the given subject
func (gh *GmailHandler) FetchSpreadsheet(subject string) (string, error) {
	return gh.FetchSpreadsheetWithContext(context.Background(), subject)
}

// FetchSpreadsheetWithContext downloads the newest spreadsheet attachment of
// a message with the given subject into the uploads directory
func (gh *GmailHandler) FetchSpreadsheetWithContext(ctx context.Context, subject string) (string, error) {
	if err := os.MkdirAll(gh.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	user := "me"
	query := fmt.Sprintf("subject:%q has:attachment", subject)

	gh.reportProgress(0, 3, "Searching mailbox...")
	r, err := gh.service.Users.Messages.List(user).Q(query).MaxResults(20).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return "", fmt.Errorf("no messages found with subject: %s", subject)
	}

	// Gmail lists newest messages first
	for i, msg := range r.Messages {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		gh.reportProgress(1, 3, fmt.Sprintf("Checking message %d/%d", i+1, len(r.Messages)))
		message, err := gh.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			log.Printf("Unable to retrieve message %s: %v", msg.Id, err)
			continue
		}

		part := findSpreadsheetPart(message.Payload)
		if part == nil {
			continue
		}

		gh.reportProgress(2, 3, fmt.Sprintf("Downloading %s", part.Filename))
		data, err := gh.attachmentData(ctx, user, msg.Id, part)
		if err != nil {
			log.Printf("Unable to retrieve attachment %s: %v", part.Filename, err)
			continue
		}

		filePath := filepath.Join(gh.uploadsDir, filepath.Base(part.Filename))
		if err := os.WriteFile(filePath, data, 0644); err != nil {
			return "", fmt.Errorf("unable to write file %s: %w", filePath, err)
		}

		log.Printf("Downloaded: %s", filePath)
		gh.reportProgress(3, 3, "Download complete")
		return filePath, nil
	}

	return "", fmt.Errorf("%w in messages with subject: %s", ErrNoSpreadsheet, subject)
}

func (gh *GmailHandler) attachmentData(ctx context.Context, user, messageID string, part *gmail.MessagePart) ([]byte, error) {
	encoded := part.Body.Data
	if part.Body.AttachmentId != "" {
		attachment, err := gh.service.Users.Messages.Attachments.Get(user, messageID, part.Body.AttachmentId).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		encoded = attachment.Data
	}
	return decodeBody(encoded)
}

// decodeBody decodes Gmail's URL-safe base64, padded or not
func decodeBody(encoded string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to decode attachment: %w", err)
	}
	return data, nil
}

// findSpreadsheetPart walks a message's MIME tree for the first spreadsheet attachment
func findSpreadsheetPart(part *gmail.MessagePart) *gmail.MessagePart {
	if part == nil {
		return nil
	}
	if part.Filename != "" && IsSpreadsheetName(part.Filename) && part.Body != nil &&
		(part.Body.AttachmentId != "" || part.Body.Data != "") {
		return part
	}
	for _, child := range part.Parts {
		if found := findSpreadsheetPart(child); found != nil {
			return found
		}
	}
	return nil
}
