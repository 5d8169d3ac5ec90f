package render

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/teslashibe/go-posecam/pkg/pose"
)

// BaseLocale is the language every other locale falls back to.
var BaseLocale = language.English

// Message keys.
const (
	keyPosePrefix       = "pose."
	keyNoLandmarks      = "landmarks.none"
	keySummaryPose      = "summary.pose"
	keySummaryCount     = "summary.landmarks"
	keySummaryConns     = "summary.connections"
	keySummaryImage     = "summary.annotated"
	keyYes              = "common.yes"
	keyNo               = "common.no"
	keyColumnVisibility = "column.visibility"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		keyPosePrefix + string(pose.HandsUp):     "Hands Up",
		keyPosePrefix + string(pose.LeftHandUp):  "Left Hand Up",
		keyPosePrefix + string(pose.RightHandUp): "Right Hand Up",
		keyPosePrefix + string(pose.Standing):    "Standing",
		keyPosePrefix + string(pose.Unknown):     "Unknown",
		keyNoLandmarks:                           "No landmarks detected",
		keySummaryPose:                           "Pose: %s",
		keySummaryCount:                          "Landmarks: %d",
		keySummaryConns:                          "Connections: %d",
		keySummaryImage:                          "Annotated image: %s",
		keyYes:                                   "yes",
		keyNo:                                    "no",
		keyColumnVisibility:                      "Visibility",
	},
	language.Russian: {
		keyPosePrefix + string(pose.HandsUp):     "Руки вверх",
		keyPosePrefix + string(pose.LeftHandUp):  "Левая рука вверх",
		keyPosePrefix + string(pose.RightHandUp): "Правая рука вверх",
		keyPosePrefix + string(pose.Standing):    "Стоит",
		keyPosePrefix + string(pose.Unknown):     "Неизвестно",
		keyNoLandmarks:                           "Ключевые точки не обнаружены",
		keySummaryPose:                           "Поза: %s",
		keySummaryCount:                          "Точек: %d",
		keySummaryConns:                          "Соединений: %d",
		keySummaryImage:                          "Размеченное изображение: %s",
		keyYes:                                   "да",
		keyNo:                                    "нет",
		keyColumnVisibility:                      "Видимость",
	},
}

var builder = newCatalog()

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(BaseLocale))
	for tag, msgs := range messages {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Locales returns the supported locale tags.
func Locales() []language.Tag {
	return builder.Languages()
}

// Localizer looks up display strings for one locale.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewLocalizer matches locale against the supported languages.
// Unknown or malformed locales use BaseLocale.
func NewLocalizer(locale string) *Localizer {
	tag := BaseLocale
	if want, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		matched, _, conf := builder.Matcher().Match(want)
		if conf != language.No {
			base, _ := matched.Base()
			tag = language.Make(base.String())
		}
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(builder)),
	}
}

// Tag returns the matched language.
func (l *Localizer) Tag() language.Tag { return l.tag }

// PoseName returns the localized name of t. Identifiers without a catalog
// entry come back unchanged.
func (l *Localizer) PoseName(t pose.Type) string {
	key := keyPosePrefix + string(t)
	if _, ok := messages[BaseLocale][key]; !ok {
		return string(t)
	}
	return l.printer.Sprintf(key)
}

func (l *Localizer) text(key string, args ...any) string {
	return l.printer.Sprintf(key, args...)
}
