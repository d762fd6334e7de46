// Package call runs voice call sessions: a state machine per caller that
// classifies intent, gathers the slots each flow needs, and invokes the
// domain services through a deadline-bounded tool router. Crisis phrases
// preempt every state.
package call

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/bethesda-mission/shelterline/pkg/intent"
	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/services"
	"github.com/bethesda-mission/shelterline/pkg/speech"
)

// State is the session's position in the call flow.
type State string

const (
	// StateClassify waits for an utterance that picks a flow.
	StateClassify State = "classify_intent"
	// StateGather collects the active flow's slots one at a time.
	StateGather State = "gather_slots"
	// StateConfirm waits for a yes or no on the gathered slots.
	StateConfirm State = "confirm"
	// StateCrisis follows the hotline referral; the next utterance
	// closes the call.
	StateCrisis State = "crisis"
	// StateEnded is terminal.
	StateEnded State = "ended"
)

// Flow identifies which task the caller is working through.
type Flow string

const (
	FlowNone      Flow = ""
	FlowBed       Flow = "bed"
	FlowChapel    Flow = "chapel"
	FlowVolunteer Flow = "volunteer"
)

// slot names the piece of information currently being gathered.
type slot string

const (
	slotName      slot = "name"
	slotSituation slot = "situation"
	slotNeeds     slot = "needs"

	slotChapelDate    slot = "chapel_date"
	slotChapelTime    slot = "chapel_time"
	slotChapelGroup   slot = "chapel_group"
	slotChapelContact slot = "chapel_contact"

	slotVolName         slot = "vol_name"
	slotVolPhone        slot = "vol_phone"
	slotVolAvailability slot = "vol_availability"
	slotVolInterests    slot = "vol_interests"
)

// Session is one live call. All access goes through HandleUtterance,
// which serializes on the session mutex, so a double-submitted utterance
// cannot commit a tool twice.
type Session struct {
	Token      string
	CallerHash string

	router     *ToolRouter
	classifier *intent.Classifier
	now        func() time.Time

	mu           sync.Mutex
	state        State
	flow         Flow
	pending      slot
	language     string
	lastActivity time.Time

	callerName string
	situation  string
	needs      string

	chapelDate    string
	chapelTime    string
	chapelGroup   string
	chapelContact string

	volName         string
	volPhone        string
	volAvailability []string
	volInterests    []string

	// Commit latches: once a tool has succeeded for a flow, repeat
	// requests replay the confirmation instead of re-invoking the tool.
	reservation        *models.Reservation
	chapelBooking      *models.ChapelService
	volunteerCommitted bool
}

func newSession(token, callerHash string, router *ToolRouter, classifier *intent.Classifier, now func() time.Time) *Session {
	return &Session{
		Token:        token,
		CallerHash:   callerHash,
		router:       router,
		classifier:   classifier,
		now:          now,
		state:        StateClassify,
		lastActivity: now(),
	}
}

// Greeting is the opening line spoken when the call connects.
func (s *Session) Greeting() speech.Reply {
	return speech.Reply{Text: prompt("en", promptGreeting), Language: "en"}
}

// State returns the current state.
func (s *Session) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Language returns the language the session has locked onto, or "" if no
// substantive utterance has arrived yet.
func (s *Session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// Reservation returns the reservation committed during this call, if any.
func (s *Session) Reservation() *models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservation
}

// IdleSince returns the time of the last caller utterance.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// HandleUtterance advances the state machine by one caller utterance and
// returns the reply to speak. Crisis phrases and farewells are handled
// before any state logic.
func (s *Session) HandleUtterance(ctx context.Context, text string) speech.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = s.now()
	if s.state == StateEnded {
		return s.reply(prompt(s.lang(), promptFarewell), true)
	}

	if crisis, lang := s.classifier.IsCrisis(text, s.language); crisis {
		if lang != "" {
			s.language = lang
		}
		s.state = StateCrisis
		s.flow = FlowNone
		slog.Info("Crisis phrase detected, referring to hotline",
			"session", s.Token, "language", s.lang())
		return s.reply(prompt(s.lang(), promptCrisisHotline), false)
	}
	if s.state == StateCrisis {
		return s.end()
	}

	if s.language == "" && strings.TrimSpace(text) != "" {
		s.language = intent.DetectLanguage(text)
	}

	if s.classifier.IsFarewell(text) {
		return s.end()
	}

	switch s.state {
	case StateGather:
		return s.fillSlot(text)
	case StateConfirm:
		return s.handleConfirm(ctx, text)
	default:
		return s.classifyAndRoute(ctx, text)
	}
}

func (s *Session) classifyAndRoute(ctx context.Context, text string) speech.Reply {
	switch s.classifier.Classify(text) {
	case intent.BedInquiry:
		return s.startBedFlow(ctx)
	case intent.Chapel:
		if s.chapelBooking != nil {
			return s.reply(prompt(s.lang(), promptChapelConfirmed, s.chapelBooking.Date, s.chapelBooking.Time), false)
		}
		s.flow = FlowChapel
		s.state = StateGather
		s.pending = slotChapelDate
		return s.reply(prompt(s.lang(), promptAskChapelDate), false)
	case intent.Volunteer:
		if s.volunteerCommitted {
			return s.reply(prompt(s.lang(), promptAnythingElse), false)
		}
		s.flow = FlowVolunteer
		s.state = StateGather
		s.pending = slotVolName
		return s.reply(prompt(s.lang(), promptAskVolName), false)
	case intent.Donation:
		return s.reply(prompt(s.lang(), promptDonationInfo), false)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "rule") || strings.Contains(lower, "curfew") || strings.Contains(lower, "check-in") || strings.Contains(lower, "check in time"):
		return s.reply(prompt(s.lang(), promptRulesInfo), false)
	case strings.Contains(lower, "where") || strings.Contains(lower, "address") || strings.Contains(lower, "direction"):
		return s.reply(prompt(s.lang(), promptDirectionsInfo), false)
	}
	return s.reply(prompt(s.lang(), promptUnknownIntent), false)
}

func (s *Session) startBedFlow(ctx context.Context) speech.Reply {
	if s.reservation != nil {
		return s.reply(prompt(s.lang(), promptAlreadyDone, s.reservation.Code, s.reservation.BedID), false)
	}
	summary, err := s.router.CheckAvailability(ctx)
	if err != nil {
		slog.Error("check_availability failed", "session", s.Token, "error", err)
		return s.reply(prompt(s.lang(), promptToolTrouble), false)
	}
	if summary.Available == 0 {
		return s.reply(prompt(s.lang(), promptNoCapacity), false)
	}
	s.flow = FlowBed
	s.state = StateGather
	s.pending = slotName
	return s.reply(prompt(s.lang(), promptAvailability, summary.Available), false)
}

func (s *Session) fillSlot(text string) speech.Reply {
	value := strings.TrimSpace(text)
	if value == "" {
		return s.reprompt()
	}

	switch s.pending {
	case slotName:
		s.callerName = extractName(value)
		s.pending = slotSituation
		return s.reply(prompt(s.lang(), promptAskSituation, s.callerName), false)
	case slotSituation:
		s.situation = value
		s.pending = slotNeeds
		return s.reply(prompt(s.lang(), promptAskNeeds), false)
	case slotNeeds:
		if !isNone(value) {
			s.needs = value
		}
		s.state = StateConfirm
		return s.reply(prompt(s.lang(), promptConfirmBed, s.callerName), false)

	case slotChapelDate:
		s.chapelDate = value
		// A re-supplied date after a weekend rejection keeps the rest
		// of the booking and goes straight back to confirmation.
		if s.chapelTime != "" && s.chapelGroup != "" && s.chapelContact != "" {
			s.state = StateConfirm
			return s.reply(prompt(s.lang(), promptConfirmChapel, s.chapelGroup, s.chapelDate, s.chapelTime), false)
		}
		s.pending = slotChapelTime
		return s.reply(prompt(s.lang(), promptAskChapelTime), false)
	case slotChapelTime:
		s.chapelTime = normalizeTime(value)
		if s.chapelGroup != "" && s.chapelContact != "" {
			s.state = StateConfirm
			return s.reply(prompt(s.lang(), promptConfirmChapel, s.chapelGroup, s.chapelDate, s.chapelTime), false)
		}
		s.pending = slotChapelGroup
		return s.reply(prompt(s.lang(), promptAskChapelGroup), false)
	case slotChapelGroup:
		s.chapelGroup = value
		s.pending = slotChapelContact
		return s.reply(prompt(s.lang(), promptAskChapelContact), false)
	case slotChapelContact:
		s.chapelContact = value
		s.state = StateConfirm
		return s.reply(prompt(s.lang(), promptConfirmChapel, s.chapelGroup, s.chapelDate, s.chapelTime), false)

	case slotVolName:
		s.volName = extractName(value)
		s.pending = slotVolPhone
		return s.reply(prompt(s.lang(), promptAskVolPhone, s.volName), false)
	case slotVolPhone:
		s.volPhone = value
		s.pending = slotVolAvailability
		return s.reply(prompt(s.lang(), promptAskVolAvailability), false)
	case slotVolAvailability:
		s.volAvailability = splitList(value)
		s.pending = slotVolInterests
		return s.reply(prompt(s.lang(), promptAskVolInterests), false)
	case slotVolInterests:
		s.volInterests = splitList(value)
		s.state = StateConfirm
		return s.reply(prompt(s.lang(), promptConfirmVolunteer), false)
	}
	return s.reply(prompt(s.lang(), promptUnknownIntent), false)
}

func (s *Session) handleConfirm(ctx context.Context, text string) speech.Reply {
	switch {
	case matchesAny(text, yesWords):
		return s.commit(ctx)
	case matchesAny(text, noWords):
		s.flow = FlowNone
		s.pending = ""
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptAnythingElse), false)
	default:
		return s.reprompt()
	}
}

// commit invokes the flow's tool exactly once. On success the latch for
// that flow is set and the session returns to classify for anything else
// the caller needs.
func (s *Session) commit(ctx context.Context) speech.Reply {
	switch s.flow {
	case FlowBed:
		return s.commitBed(ctx)
	case FlowChapel:
		return s.commitChapel(ctx)
	case FlowVolunteer:
		return s.commitVolunteer(ctx)
	}
	s.state = StateClassify
	return s.reply(prompt(s.lang(), promptAnythingElse), false)
}

func (s *Session) commitBed(ctx context.Context) speech.Reply {
	if s.reservation != nil {
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptAlreadyDone, s.reservation.Code, s.reservation.BedID), false)
	}
	reservation, err := s.router.ReserveBed(ctx, services.CreateReservationInput{
		CallerName: s.callerName,
		Situation:  s.situation,
		Needs:      s.needs,
		Language:   s.lang(),
		CallerHash: s.CallerHash,
	})
	switch {
	case err == nil:
		s.reservation = reservation
		s.flow = FlowNone
		s.state = StateClassify
		slog.Info("Reservation committed from call",
			"session", s.Token,
			"code", reservation.Code,
			"bed_id", reservation.BedID)
		return s.reply(prompt(s.lang(), promptBedConfirmed, reservation.BedID, reservation.Code), false)
	case errors.Is(err, services.ErrNoCapacity):
		s.flow = FlowNone
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptNoCapacity), false)
	case errors.Is(err, services.ErrAlreadyReserved):
		s.flow = FlowNone
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptAnythingElse), false)
	default:
		slog.Error("reserve_bed failed", "session", s.Token, "error", err)
		return s.reply(prompt(s.lang(), promptToolTrouble), false)
	}
}

func (s *Session) commitChapel(ctx context.Context) speech.Reply {
	if s.chapelBooking != nil {
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptChapelConfirmed, s.chapelBooking.Date, s.chapelBooking.Time), false)
	}
	contactName, contactPhone := splitContact(s.chapelContact)
	booking, err := s.router.ScheduleChapel(ctx, services.ScheduleChapelInput{
		Date:         s.chapelDate,
		Time:         s.chapelTime,
		GroupName:    s.chapelGroup,
		ContactName:  contactName,
		ContactPhone: contactPhone,
	})
	switch {
	case err == nil:
		s.chapelBooking = booking
		s.flow = FlowNone
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptChapelConfirmed, booking.Date, booking.Time), false)
	case errors.Is(err, services.ErrWeekendDisallowed):
		s.state = StateGather
		s.pending = slotChapelDate
		return s.reply(prompt(s.lang(), promptChapelWeekend), false)
	case errors.Is(err, services.ErrSlotTaken):
		s.state = StateGather
		s.pending = slotChapelTime
		return s.reply(prompt(s.lang(), promptChapelSlotTaken), false)
	case services.IsValidationError(err):
		s.state = StateGather
		s.pending = slotChapelDate
		return s.reply(prompt(s.lang(), promptChapelBadInput, prompt(s.lang(), promptAskChapelDate)), false)
	default:
		slog.Error("schedule_chapel_service failed", "session", s.Token, "error", err)
		return s.reply(prompt(s.lang(), promptToolTrouble), false)
	}
}

func (s *Session) commitVolunteer(ctx context.Context) speech.Reply {
	if s.volunteerCommitted {
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptAnythingElse), false)
	}
	_, err := s.router.RegisterVolunteer(ctx, services.RegisterVolunteerInput{
		Name:         s.volName,
		Phone:        s.volPhone,
		Availability: s.volAvailability,
		Interests:    s.volInterests,
	})
	switch {
	case err == nil:
		s.volunteerCommitted = true
		s.flow = FlowNone
		s.state = StateClassify
		return s.reply(prompt(s.lang(), promptVolunteerConfirmed, s.volName), false)
	case services.IsValidationError(err):
		s.state = StateGather
		s.pending = slotVolName
		return s.reply(prompt(s.lang(), promptAskVolName), false)
	default:
		slog.Error("register_volunteer failed", "session", s.Token, "error", err)
		return s.reply(prompt(s.lang(), promptToolTrouble), false)
	}
}

// reprompt repeats the question for the pending slot or confirmation.
func (s *Session) reprompt() speech.Reply {
	if s.state == StateConfirm {
		switch s.flow {
		case FlowBed:
			return s.reply(prompt(s.lang(), promptConfirmBed, s.callerName), false)
		case FlowChapel:
			return s.reply(prompt(s.lang(), promptConfirmChapel, s.chapelGroup, s.chapelDate, s.chapelTime), false)
		case FlowVolunteer:
			return s.reply(prompt(s.lang(), promptConfirmVolunteer), false)
		}
	}
	switch s.pending {
	case slotName:
		return s.reply(prompt(s.lang(), promptAskName), false)
	case slotSituation:
		return s.reply(prompt(s.lang(), promptAskSituation, s.callerName), false)
	case slotNeeds:
		return s.reply(prompt(s.lang(), promptAskNeeds), false)
	case slotChapelDate:
		return s.reply(prompt(s.lang(), promptAskChapelDate), false)
	case slotChapelTime:
		return s.reply(prompt(s.lang(), promptAskChapelTime), false)
	case slotChapelGroup:
		return s.reply(prompt(s.lang(), promptAskChapelGroup), false)
	case slotChapelContact:
		return s.reply(prompt(s.lang(), promptAskChapelContact), false)
	case slotVolName:
		return s.reply(prompt(s.lang(), promptAskVolName), false)
	case slotVolPhone:
		return s.reply(prompt(s.lang(), promptAskVolPhone, s.volName), false)
	case slotVolAvailability:
		return s.reply(prompt(s.lang(), promptAskVolAvailability), false)
	case slotVolInterests:
		return s.reply(prompt(s.lang(), promptAskVolInterests), false)
	}
	return s.reply(prompt(s.lang(), promptUnknownIntent), false)
}

func (s *Session) end() speech.Reply {
	s.state = StateEnded
	return s.reply(prompt(s.lang(), promptFarewell), true)
}

func (s *Session) reply(text string, endCall bool) speech.Reply {
	return speech.Reply{Text: text, Language: s.lang(), EndCall: endCall}
}

func (s *Session) lang() string {
	if s.language == "" {
		return "en"
	}
	return s.language
}

// matchesAny reports whether any of words occurs as a whole word in
// text, ignoring case and punctuation, so "No, not yet." matches "no".
func matchesAny(text string, words []string) bool {
	padded := " " + foldWords(text) + " "
	for _, w := range words {
		if strings.Contains(padded, " "+foldWords(w)+" ") {
			return true
		}
	}
	return false
}

// foldWords lowercases s, replaces punctuation with spaces, and
// collapses whitespace runs. Apostrophes stay so "d'accord" survives.
func foldWords(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// nameLeadIns are spoken prefixes callers put before their name.
var nameLeadIns = []string{
	"my name is", "my name's", "the name is", "this is", "it's", "i am", "i'm",
	"me llamo", "mi nombre es", "soy",
	"meu nome é", "meu nome e", "me chamo", "sou",
	"je m'appelle", "moi c'est", "je suis",
}

// extractName strips a lead-in like "my name is" from a spoken name,
// keeping the caller's own casing for what remains.
func extractName(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, lead := range nameLeadIns {
		if strings.HasPrefix(lower, lead+" ") {
			return strings.Trim(trimmed[len(lead):], " ,.!?")
		}
	}
	return strings.Trim(trimmed, " ,.!?")
}

func isNone(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "none", "no", "nothing", "nada", "ninguna", "ninguno", "rien", "nao", "não":
		return true
	}
	return false
}

// splitList breaks a spoken enumeration into items.
func splitList(text string) []string {
	replaced := strings.NewReplacer(" and ", ",", " y ", ",", " e ", ",", " et ", ",").Replace(text)
	parts := strings.Split(replaced, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// splitContact separates "Jane Doe, 555-0101" into name and phone; with
// no comma the whole utterance becomes the name.
func splitContact(text string) (string, string) {
	name, phone, found := strings.Cut(text, ",")
	if !found {
		return strings.TrimSpace(text), ""
	}
	return strings.TrimSpace(name), strings.TrimSpace(phone)
}

// normalizeTime maps common spoken forms onto the HH:MM slot format.
func normalizeTime(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(lower, "10"):
		return "10:00"
	case strings.Contains(lower, "13") || strings.Contains(lower, "1 pm") || strings.Contains(lower, "one"):
		return "13:00"
	case strings.Contains(lower, "19") || strings.Contains(lower, "7") || strings.Contains(lower, "seven"):
		return "19:00"
	}
	return lower
}
