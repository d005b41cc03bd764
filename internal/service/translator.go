package service

import (
	"fmt"
	"strings"

	"github.com/itxrex07/insta-sub000/internal/constants"
	brerrors "github.com/itxrex07/insta-sub000/internal/errors"
	"github.com/itxrex07/insta-sub000/internal/models"
)

// TranslatorOptions tune formatting; kind coverage is not configurable.
type TranslatorOptions struct {
	// PrefixSender prepends the sender identity to outbound (Telegram to
	// Instagram) text so the Instagram side sees who replied.
	PrefixSender bool
}

// Translator converts a normalized message into the send operations the
// opposite platform understands. Every kind yields at least one operation;
// kinds with no native equivalent degrade to a textual description and are
// reported through the second return value, which is informational and
// never fatal.
type Translator struct {
	opts TranslatorOptions
}

func NewTranslator(opts TranslatorOptions) *Translator {
	return &Translator{opts: opts}
}

// ToDestination translates an inbound Instagram message into Telegram send
// operations. Carousels expand into one operation per item in source order.
func (t *Translator) ToDestination(msg *models.Message) ([]models.SendOp, error) {
	sender := senderLabel(msg)

	if len(msg.Items) > 0 {
		return t.expandCarousel(msg, sender)
	}
	return t.translateOne(msg.Kind, msg, sender)
}

func (t *Translator) translateOne(kind models.MessageKind, msg *models.Message, sender string) ([]models.SendOp, error) {
	switch kind {
	case models.KindText:
		body := msg.Text
		if body == "" {
			body = "(empty message)"
		}
		return []models.SendOp{textOp(prefixed(sender, body), constants.MaxTelegramTextLength)}, nil

	case models.KindImage:
		if !hasMedia(msg) {
			return missingMediaFallback(sender, kind)
		}
		return []models.SendOp{mediaOp(models.SendOpPhoto, msg.Media, sender)}, nil

	case models.KindVideo:
		if !hasMedia(msg) {
			return missingMediaFallback(sender, kind)
		}
		return []models.SendOp{mediaOp(models.SendOpVideo, msg.Media, sender)}, nil

	case models.KindAnimation:
		// Instagram animations are short MP4 clips; Telegram plays them as
		// video.
		if !hasMedia(msg) {
			return missingMediaFallback(sender, kind)
		}
		return []models.SendOp{mediaOp(models.SendOpVideo, msg.Media, sender)}, nil

	case models.KindVoice:
		if !hasMedia(msg) {
			return missingMediaFallback(sender, kind)
		}
		op := mediaOp(models.SendOpDocument, msg.Media, sender)
		if msg.Media.DurationSec > 0 {
			op.Text = truncate(fmt.Sprintf("%s: voice message (%ds)", sender, msg.Media.DurationSec), constants.MaxTelegramCaptionLength)
		}
		return []models.SendOp{op}, nil

	case models.KindDocument:
		if !hasMedia(msg) {
			return missingMediaFallback(sender, kind)
		}
		return []models.SendOp{mediaOp(models.SendOpDocument, msg.Media, sender)}, nil

	case models.KindSticker:
		if !hasMedia(msg) {
			return missingMediaFallback(sender, kind)
		}
		// Stickers travel as static images.
		return []models.SendOp{mediaOp(models.SendOpPhoto, msg.Media, sender)}, nil

	case models.KindShare:
		return []models.SendOp{textOp(prefixed(sender, shareText(msg)), constants.MaxTelegramTextLength)}, nil

	case models.KindReaction:
		return []models.SendOp{textOp(reactionText(sender, msg.Reaction), constants.MaxTelegramTextLength)}, nil

	default:
		label := string(kind)
		if label == "" {
			label = "unknown"
		}
		return []models.SendOp{textOp(fmt.Sprintf("%s sent an unsupported message (%s)", sender, label), constants.MaxTelegramTextLength)},
			unsupportedKind(kind, "no destination equivalent, degraded to text")
	}
}

func (t *Translator) expandCarousel(msg *models.Message, sender string) ([]models.SendOp, error) {
	var firstErr error
	ops := make([]models.SendOp, 0, len(msg.Items))
	for _, item := range msg.Items {
		media := item.Media
		itemMsg := &models.Message{
			SenderDisplayName: msg.SenderDisplayName,
			SenderID:          msg.SenderID,
			Kind:              item.Kind,
			Media:             &media,
		}
		itemOps, err := t.translateOne(item.Kind, itemMsg, sender)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		ops = append(ops, itemOps...)
	}
	return ops, firstErr
}

// ToSource translates an outbound Telegram message into Instagram send
// operations. Instagram direct messages accept text, photos and videos;
// everything else degrades to text.
func (t *Translator) ToSource(msg *models.Message) ([]models.SendOp, error) {
	sender := senderLabel(msg)
	prefix := func(body string) string {
		if t.opts.PrefixSender {
			return prefixed(sender, body)
		}
		return body
	}

	switch msg.Kind {
	case models.KindText:
		body := msg.Text
		if body == "" {
			body = "(empty message)"
		}
		return []models.SendOp{textOp(prefix(body), constants.MaxInstagramTextLength)}, nil

	case models.KindImage, models.KindSticker:
		if !hasMedia(msg) {
			return []models.SendOp{textOp(prefix(fmt.Sprintf("sent %s", kindPhrase(msg.Kind))), constants.MaxInstagramTextLength)},
				unsupportedKind(msg.Kind, "media payload missing, degraded to text")
		}
		op := models.SendOp{Type: models.SendOpPhoto, MediaURL: msg.Media.URL}
		if msg.Media.Caption != "" {
			op.Text = truncate(prefix(msg.Media.Caption), constants.MaxInstagramTextLength)
		}
		return []models.SendOp{op}, nil

	case models.KindVideo, models.KindAnimation:
		if !hasMedia(msg) {
			return []models.SendOp{textOp(prefix(fmt.Sprintf("sent %s", kindPhrase(msg.Kind))), constants.MaxInstagramTextLength)},
				unsupportedKind(msg.Kind, "media payload missing, degraded to text")
		}
		op := models.SendOp{Type: models.SendOpVideo, MediaURL: msg.Media.URL}
		if msg.Media.Caption != "" {
			op.Text = truncate(prefix(msg.Media.Caption), constants.MaxInstagramTextLength)
		}
		return []models.SendOp{op}, nil

	case models.KindVoice:
		return []models.SendOp{textOp(prefix("sent a voice message"), constants.MaxInstagramTextLength)},
			unsupportedKind(msg.Kind, "voice has no Instagram direct equivalent")

	case models.KindDocument:
		body := "sent a file"
		if msg.Media != nil && msg.Media.FileName != "" {
			body = fmt.Sprintf("sent a file: %s", msg.Media.FileName)
		}
		return []models.SendOp{textOp(prefix(body), constants.MaxInstagramTextLength)},
			unsupportedKind(msg.Kind, "documents cannot be sent to Instagram directs")

	case models.KindShare:
		return []models.SendOp{textOp(prefix(shareText(msg)), constants.MaxInstagramTextLength)}, nil

	case models.KindReaction:
		return []models.SendOp{textOp(reactionText(sender, msg.Reaction), constants.MaxInstagramTextLength)}, nil

	default:
		label := string(msg.Kind)
		if label == "" {
			label = "unknown"
		}
		return []models.SendOp{textOp(prefix(fmt.Sprintf("sent an unsupported message (%s)", label)), constants.MaxInstagramTextLength)},
			unsupportedKind(msg.Kind, "no source equivalent, degraded to text")
	}
}

func unsupportedKind(kind models.MessageKind, detail string) error {
	return brerrors.New(brerrors.ErrCodeUnsupportedKind, detail).WithContext("kind", string(kind))
}

func hasMedia(msg *models.Message) bool {
	return msg.Media != nil && msg.Media.URL != ""
}

// missingMediaFallback degrades a media message whose payload never arrived
// into a text placeholder so the thread still sees that something was sent.
func missingMediaFallback(sender string, kind models.MessageKind) ([]models.SendOp, error) {
	return []models.SendOp{textOp(fmt.Sprintf("%s sent %s", sender, kindPhrase(kind)), constants.MaxTelegramTextLength)},
		unsupportedKind(kind, "media payload missing, degraded to text")
}

func kindPhrase(kind models.MessageKind) string {
	switch kind {
	case models.KindImage:
		return "an image"
	case models.KindVideo:
		return "a video"
	case models.KindAnimation:
		return "an animation"
	case models.KindVoice:
		return "a voice message"
	case models.KindDocument:
		return "a file"
	case models.KindSticker:
		return "a sticker"
	default:
		return "a message"
	}
}

func senderLabel(msg *models.Message) string {
	if msg.SenderDisplayName != "" {
		return msg.SenderDisplayName
	}
	if msg.SenderID != "" {
		return msg.SenderID
	}
	return "unknown sender"
}

func prefixed(sender, body string) string {
	return fmt.Sprintf("%s: %s", sender, body)
}

func textOp(body string, limit int) models.SendOp {
	return models.SendOp{Type: models.SendOpText, Text: truncate(body, limit)}
}

func mediaOp(opType models.SendOpType, media *models.MediaPayload, sender string) models.SendOp {
	op := models.SendOp{Type: opType}
	if media != nil {
		op.MediaURL = media.URL
		op.FileName = media.FileName
		if media.Caption != "" {
			op.Text = truncate(prefixed(sender, media.Caption), constants.MaxTelegramCaptionLength)
		}
	}
	return op
}

func shareText(msg *models.Message) string {
	if msg.Text != "" {
		return fmt.Sprintf("shared a post: %s", msg.Text)
	}
	return "shared a post"
}

func reactionText(sender string, r *models.ReactionPayload) string {
	if r == nil {
		return fmt.Sprintf("%s reacted", sender)
	}
	if r.Removed {
		return fmt.Sprintf("%s removed their %s reaction", sender, r.Emoji)
	}
	return fmt.Sprintf("%s reacted %s", sender, r.Emoji)
}

// truncate cuts on rune boundaries so multi-byte text never splits mid
// character.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	const ellipsis = "..."
	if limit <= len(ellipsis) {
		return string(runes[:limit])
	}
	return strings.TrimSpace(string(runes[:limit-len(ellipsis)])) + ellipsis
}
