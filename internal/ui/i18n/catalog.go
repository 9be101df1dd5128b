// Package i18n holds the user-facing strings of the paywall page.
package i18n

import (
	"golang.org/x/text/language"
)

// Catalog is the set of labels and messages rendered by the page.
type Catalog struct {
	Tag language.Tag

	WatchLive         string
	PayToWatch        string
	CameraUnavailable string
	ConnectionError   string
	JoinEvent         string
	NotStarted        string

	GrantedPrefix     string
	PendingPrefix     string
	UnavailablePrefix string

	StatusCheckFailed string
	LiveMessage       string
	NotLiveMessage    string
	PaymentFailed     string
	ConnectionRetry   string
	HLSUnsupported    string
	ClosePlayer       string
}

// PortugueseBR is the default catalog.
var PortugueseBR = Catalog{
	Tag:               language.BrazilianPortuguese,
	WatchLive:         "Assistir Ao Vivo",
	PayToWatch:        "Pagar para Assistir",
	CameraUnavailable: "Câmera Indisponível",
	ConnectionError:   "Erro de Conexão",
	JoinEvent:         "Entrar no Evento",
	NotStarted:        "Evento Não Iniciado",
	GrantedPrefix:     "✅ ",
	PendingPrefix:     "💳 ",
	UnavailablePrefix: "📷 ",
	StatusCheckFailed: "Erro ao verificar status da câmera",
	LiveMessage:       "🔴 Transmissão ao vivo agora",
	NotLiveMessage:    "A transmissão ainda não começou",
	PaymentFailed:     "Erro ao processar pagamento.",
	ConnectionRetry:   "Erro de conexão. Tente novamente.",
	HLSUnsupported:    "Seu navegador não suporta streaming HLS.",
	ClosePlayer:       "Fechar",
}

// English is used when the page asks for any English variant.
var English = Catalog{
	Tag:               language.English,
	WatchLive:         "Watch Live",
	PayToWatch:        "Pay to Watch",
	CameraUnavailable: "Camera Unavailable",
	ConnectionError:   "Connection Error",
	JoinEvent:         "Join Event",
	NotStarted:        "Not Started",
	GrantedPrefix:     "✅ ",
	PendingPrefix:     "💳 ",
	UnavailablePrefix: "📷 ",
	StatusCheckFailed: "Unable to check the camera status",
	LiveMessage:       "🔴 Streaming live now",
	NotLiveMessage:    "The stream has not started yet",
	PaymentFailed:     "Unable to process the payment.",
	ConnectionRetry:   "Connection error. Please try again.",
	HLSUnsupported:    "Your browser does not support HLS streaming.",
	ClosePlayer:       "Close",
}

var (
	catalogs = []Catalog{PortugueseBR, English}
	matcher  = language.NewMatcher([]language.Tag{PortugueseBR.Tag, English.Tag})
)

// Lookup returns the catalog best matching the given BCP 47 tags (for
// example the document lang attribute or navigator.languages). Unknown or
// empty input yields PortugueseBR.
func Lookup(tags ...string) Catalog {
	_, index, confidence := matcher.Match(parseTags(tags)...)
	if confidence == language.No || index < 0 || index >= len(catalogs) {
		return PortugueseBR
	}
	return catalogs[index]
}

func parseTags(raw []string) []language.Tag {
	tags := make([]language.Tag, 0, len(raw))
	for _, r := range raw {
		tag, err := language.Parse(r)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}
