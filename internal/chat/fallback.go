package chat

import (
	"fmt"
	"strings"
)

// Contact is the business contact line quoted by canned replies.
type Contact struct {
	Name  string
	Email string
	Phone string
}

func (c Contact) line() string {
	switch {
	case c.Email != "" && c.Phone != "":
		return c.Email + " or " + c.Phone
	case c.Email != "":
		return c.Email
	default:
		return c.Phone
	}
}

type keywordReply struct {
	keyword string
	reply   string
}

// FallbackReplies answers from a fixed keyword table when no model is
// configured. The first keyword found in the message wins.
type FallbackReplies struct {
	entries []keywordReply
	def     string
}

// NewFallbackReplies builds the canned reply table for c.
func NewFallbackReplies(c Contact) *FallbackReplies {
	name := c.Name
	if name == "" {
		name = "Mulambwane Wildlife & Hunting Safaris"
	}
	contact := c.line()
	return &FallbackReplies{
		entries: []keywordReply{
			{"hello", fmt.Sprintf("Hello! Welcome to %s! How can I help you today?", name)},
			{"hunting", "We offer professional hunting safaris featuring Big 5 game including Cape Buffalo, Greater Kudu, Sable Antelope, and more. Our experienced guides provide spoor reading and bushcraft training."},
			{"lodge", "Our luxury bush suites offer authentic African accommodation with modern amenities. We have a traditional boma, common lounge area, and cultural experiences."},
			{"game meat", "We provide premium game meat including traditional biltong, droëwors, prime cuts, and game boerewors. All ethically sourced from our conservation efforts."},
			{"booking", fmt.Sprintf("You can book through our lodge reservation form or contact us directly at %s.", contact)},
		},
		def: fmt.Sprintf("Thank you for your interest in %s! We offer hunting safaris, luxury lodge accommodation, and premium game meat. For specific inquiries, please contact us at %s.", name, contact),
	}
}

// Reply returns the canned answer for message.
func (f *FallbackReplies) Reply(message string) string {
	lower := strings.ToLower(message)
	for _, e := range f.entries {
		if strings.Contains(lower, e.keyword) {
			return e.reply
		}
	}
	return f.def
}
