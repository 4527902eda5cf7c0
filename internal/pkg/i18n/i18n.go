// Package i18n holds the player-facing message catalog (English and
// Indonesian) and the Accept-Language matching used by the HTTP layer.
package i18n

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// Message keys.
const (
	KeyVerified              = "location.verified"
	KeyLocationUnsupported   = "location.unsupported"
	KeyLocationDenied        = "location.permission_denied"
	KeyLocationUnavailable   = "location.position_unavailable"
	KeyLocationTimeout       = "location.timeout"
	KeyLocationOutOfRange    = "location.out_of_range"
	KeyLocationOther         = "location.other"
	KeyCameraUnsupported     = "camera.unsupported"
	KeyCameraDenied          = "camera.permission_denied"
	KeyCameraOther           = "camera.other"
	KeyOrientationDenied     = "orientation.permission_denied"
	KeyOrientationNeedsGrant = "orientation.needs_grant"
	KeyChallengeCompleted    = "challenge.completed"
	KeyLevelLocked           = "level.locked"
)

var (
	English    = language.English
	Indonesian = language.Indonesian

	supported = []language.Tag{English, Indonesian}
	matcher   = language.NewMatcher(supported)
	cat       = newCatalog()
)

var entries = map[string][2]string{
	KeyVerified: {
		"Location verified! Loading challenge...",
		"Lokasi terverifikasi! Memuat tantangan...",
	},
	KeyLocationUnsupported: {
		"Geolocation is not supported by your browser.",
		"Geolokasi tidak didukung oleh browser Anda.",
	},
	KeyLocationDenied: {
		"Location access was denied. Allow access to continue.",
		"Akses geolokasi ditolak. Izinkan akses untuk melanjutkan.",
	},
	KeyLocationUnavailable: {
		"Location information is unavailable.",
		"Informasi lokasi tidak tersedia.",
	},
	KeyLocationTimeout: {
		"Timed out waiting for your location. Try again.",
		"Waktu tunggu habis. Coba lagi.",
	},
	KeyLocationOutOfRange: {
		"You are outside the allowed radius (%s from the target location). Please move closer to the target.",
		"Anda berada di luar radius yang diizinkan (%s dari lokasi target). Silakan mendekat ke lokasi target.",
	},
	KeyLocationOther: {
		"Something went wrong while getting your location.",
		"Terjadi kesalahan saat mengambil lokasi.",
	},
	KeyCameraUnsupported: {
		"The camera is not supported by your browser.",
		"Kamera tidak didukung oleh browser Anda.",
	},
	KeyCameraDenied: {
		"Camera access was denied. Allow the camera in your browser settings.",
		"Akses kamera ditolak. Izinkan kamera di pengaturan browser.",
	},
	KeyCameraOther: {
		"Unable to access the camera.",
		"Tidak dapat mengakses kamera.",
	},
	KeyOrientationDenied: {
		"Motion sensor access was denied. Tap again to retry.",
		"Izin sensor gerak ditolak. Ketuk lagi untuk mencoba.",
	},
	KeyOrientationNeedsGrant: {
		"Tap the view once to enable 360° tracking.",
		"Ketuk layar sekali untuk mengaktifkan 360°.",
	},
	KeyChallengeCompleted: {
		"All %d objects captured!",
		"Semua %d objek tertangkap!",
	},
	KeyLevelLocked: {
		"Level %d is still locked.",
		"Level %d masih terkunci.",
	},
}

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(English))
	for key, msgs := range entries {
		_ = b.SetString(English, key, msgs[0])
		_ = b.SetString(Indonesian, key, msgs[1])
	}
	return b
}

// Match picks the best supported language for an Accept-Language header or a
// bare tag such as "id". Unparseable input falls back to def.
func Match(accept string, def language.Tag) language.Tag {
	if accept == "" {
		return def
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return def
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return def
	}
	return supported[idx]
}

// Parse resolves a configured language name, defaulting to English.
func Parse(s string) language.Tag {
	return Match(s, English)
}

// Printer formats catalog messages for one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// NewPrinter returns a printer for tag.
func NewPrinter(tag language.Tag) *Printer {
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(cat))}
}

// Language returns the printer's language.
func (p *Printer) Language() language.Tag { return p.tag }

// Sprintf formats the message registered under key.
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// RadiusLabel renders a radius the way players see it: whole kilometres from
// 1000 m upward, plain metres below.
func RadiusLabel(meters float64) string {
	if meters >= 1000 {
		return strconv.FormatFloat(meters/1000, 'f', 0, 64) + " km"
	}
	return strconv.FormatFloat(meters, 'f', -1, 64) + " m"
}

// LocationFailure returns the message for a failed location verification.
func (p *Printer) LocationFailure(reason domain.FailureReason, radiusMeters float64) string {
	switch reason {
	case domain.ReasonUnsupported:
		return p.Sprintf(KeyLocationUnsupported)
	case domain.ReasonPermissionDenied:
		return p.Sprintf(KeyLocationDenied)
	case domain.ReasonPositionUnavailable:
		return p.Sprintf(KeyLocationUnavailable)
	case domain.ReasonTimeout:
		return p.Sprintf(KeyLocationTimeout)
	case domain.ReasonOutOfRange:
		return p.Sprintf(KeyLocationOutOfRange, RadiusLabel(radiusMeters))
	default:
		return p.Sprintf(KeyLocationOther)
	}
}

// CameraFailure returns the message for a failed camera acquisition.
func (p *Printer) CameraFailure(reason domain.FailureReason) string {
	switch reason {
	case domain.ReasonUnsupported:
		return p.Sprintf(KeyCameraUnsupported)
	case domain.ReasonPermissionDenied:
		return p.Sprintf(KeyCameraDenied)
	default:
		return p.Sprintf(KeyCameraOther)
	}
}
