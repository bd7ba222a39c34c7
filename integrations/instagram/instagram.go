// Package instagram publica imagenes promocionales del parque como
// historias, via la Graph API. La imagen se normaliza y se sirve desde
// /statics para que la API pueda descargarla por URL publica.
package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// Formato vertical de historias.
const (
	storyMaxWidth  = 1080
	storyMaxHeight = 1920
)

type StoryPublisher struct {
	GraphURL      string
	AccessToken   string
	AccountID     string
	MediaDir      string
	PublicBaseURL string

	mu            sync.Mutex
	published     int
	lastPublished time.Time
	lastError     string
}

func NewStoryPublisher(graphURL, accessToken, accountID, mediaDir, publicBaseURL string) *StoryPublisher {
	return &StoryPublisher{
		GraphURL:      strings.TrimRight(graphURL, "/"),
		AccessToken:   accessToken,
		AccountID:     accountID,
		MediaDir:      mediaDir,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Enabled reporta si hay credenciales configuradas.
func (p *StoryPublisher) Enabled() bool {
	return p.AccessToken != "" && p.AccountID != ""
}

// PublishImage normaliza la imagen, la expone en /statics y corre los
// dos pasos de la Graph API (contenedor + publicacion).
func (p *StoryPublisher) PublishImage(ctx context.Context, data []byte, caption string) error {
	if !p.Enabled() {
		return fmt.Errorf("instagram no configurado")
	}

	imageURL, err := p.prepareStoryImage(data)
	if err != nil {
		return fmt.Errorf("preparando imagen de historia: %w", err)
	}

	creationID, err := p.createContainer(ctx, imageURL, caption)
	if err != nil {
		p.recordError(err)
		return fmt.Errorf("creando contenedor de historia: %w", err)
	}

	if err := p.publishContainer(ctx, creationID); err != nil {
		p.recordError(err)
		return fmt.Errorf("publicando historia: %w", err)
	}

	p.mu.Lock()
	p.published++
	p.lastPublished = time.Now()
	p.lastError = ""
	p.mu.Unlock()

	logrus.Infof("[INSTAGRAM] Historia publicada (contenedor %s)", creationID)
	return nil
}

// Status devuelve un resumen legible para el chat.
func (p *StoryPublisher) Status() string {
	if !p.Enabled() {
		return "📷 Instagram: no configurado"
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	estado := fmt.Sprintf("📷 Instagram: activo\nHistorias publicadas: %d", p.published)
	if !p.lastPublished.IsZero() {
		estado += fmt.Sprintf("\nUltima publicacion: %s", p.lastPublished.Format("02/01/2006 15:04"))
	}
	if p.lastError != "" {
		estado += fmt.Sprintf("\nUltimo error: %s", p.lastError)
	}
	return estado
}

func (p *StoryPublisher) recordError(err error) {
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()
}

// prepareStoryImage ajusta la imagen al marco 1080x1920 y la deja en
// el directorio servido por la ruta estatica.
func (p *StoryPublisher) prepareStoryImage(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	if bounds.Dx() > storyMaxWidth || bounds.Dy() > storyMaxHeight {
		img = imaging.Fit(img, storyMaxWidth, storyMaxHeight, imaging.Lanczos)
	}

	if err := os.MkdirAll(p.MediaDir, 0755); err != nil {
		return "", err
	}
	fileName := fmt.Sprintf("story_%d.jpg", time.Now().UnixNano())
	fullPath := filepath.Join(p.MediaDir, fileName)
	if err := imaging.Save(img, fullPath, imaging.JPEGQuality(90)); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/statics/media/%s", p.PublicBaseURL, fileName), nil
}

func (p *StoryPublisher) createContainer(ctx context.Context, imageURL, caption string) (string, error) {
	form := url.Values{}
	form.Set("media_type", "STORIES")
	form.Set("image_url", imageURL)
	if caption != "" {
		form.Set("caption", caption)
	}
	form.Set("access_token", p.AccessToken)

	var resp struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media", p.GraphURL, p.AccountID)
	if err := p.postForm(ctx, endpoint, form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("la Graph API no devolvio id de contenedor")
	}
	return resp.ID, nil
}

func (p *StoryPublisher) publishContainer(ctx context.Context, creationID string) error {
	form := url.Values{}
	form.Set("creation_id", creationID)
	form.Set("access_token", p.AccessToken)

	var resp struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("%s/%s/media_publish", p.GraphURL, p.AccountID)
	return p.postForm(ctx, endpoint, form, &resp)
}

func (p *StoryPublisher) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error.Message != "" {
			return fmt.Errorf("graph api: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("graph api: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
