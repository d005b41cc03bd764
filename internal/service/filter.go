package service

import (
	"strings"

	"github.com/itxrex07/insta-sub000/internal/models"
)

// FilterRuleSet decides whether a message should be dropped before any
// translation or network work happens. ShouldBlock is a pure predicate; it
// never mutates the message and has no side effects.
type FilterRuleSet struct {
	blockedSenders map[string]struct{}
	keywords       []string
}

func NewFilterRuleSet(cfg models.FilterConfig) *FilterRuleSet {
	f := &FilterRuleSet{
		blockedSenders: make(map[string]struct{}, len(cfg.BlockedSenders)),
		keywords:       make([]string, 0, len(cfg.Keywords)),
	}
	for _, s := range cfg.BlockedSenders {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			f.blockedSenders[s] = struct{}{}
		}
	}
	for _, k := range cfg.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			f.keywords = append(f.keywords, k)
		}
	}
	return f
}

func (f *FilterRuleSet) ShouldBlock(msg *models.Message) bool {
	if msg == nil {
		return false
	}

	if _, ok := f.blockedSenders[strings.ToLower(msg.SenderID)]; ok {
		return true
	}
	if msg.SenderDisplayName != "" {
		if _, ok := f.blockedSenders[strings.ToLower(msg.SenderDisplayName)]; ok {
			return true
		}
	}

	if len(f.keywords) > 0 {
		haystack := strings.ToLower(msg.Text)
		if msg.Media != nil {
			haystack += " " + strings.ToLower(msg.Media.Caption)
		}
		for _, k := range f.keywords {
			if strings.Contains(haystack, k) {
				return true
			}
		}
	}
	return false
}
