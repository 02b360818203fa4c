package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"seminar-bot/internal/domain"
)

// Events that move a session between states.
const (
	evLanguageChosen    = "language_chosen"
	evStartRegistration = "start_registration"
	evAskQuestion       = "ask_question"
	evNameAccepted      = "name_accepted"
	evOrgAccepted       = "organization_accepted"
	evPhoneAccepted     = "phone_accepted"
	evDateAccepted      = "date_accepted"
	evRegistrationDone  = "registration_done"
	evSpeakerChosen     = "speaker_chosen"
	evQuestionRelayed   = "question_relayed"
	evCancel            = "cancel"
	evChangeLanguage    = "change_language"
)

var allStates = []string{
	string(domain.StateChooseLanguage),
	string(domain.StateMenu),
	string(domain.StateSendName),
	string(domain.StateSendOrganization),
	string(domain.StateSendPhoneNumber),
	string(domain.StateSendDate),
	string(domain.StateSendHotelInfo),
	string(domain.StateChooseSpeaker),
	string(domain.StateSendQuestion),
}

func src(states ...domain.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = string(s)
	}
	return out
}

// transitions is the complete (state, event) -> state table.
var transitions = fsm.Events{
	{Name: evLanguageChosen, Src: src(domain.StateChooseLanguage), Dst: string(domain.StateMenu)},
	{Name: evStartRegistration, Src: src(domain.StateMenu), Dst: string(domain.StateSendName)},
	{Name: evAskQuestion, Src: src(domain.StateMenu), Dst: string(domain.StateChooseSpeaker)},
	{Name: evNameAccepted, Src: src(domain.StateSendName), Dst: string(domain.StateSendOrganization)},
	{Name: evOrgAccepted, Src: src(domain.StateSendOrganization), Dst: string(domain.StateSendPhoneNumber)},
	{Name: evPhoneAccepted, Src: src(domain.StateSendPhoneNumber), Dst: string(domain.StateSendDate)},
	{Name: evDateAccepted, Src: src(domain.StateSendDate), Dst: string(domain.StateSendHotelInfo)},
	{Name: evRegistrationDone, Src: src(domain.StateSendHotelInfo), Dst: string(domain.StateMenu)},
	{Name: evSpeakerChosen, Src: src(domain.StateChooseSpeaker), Dst: string(domain.StateSendQuestion)},
	{Name: evQuestionRelayed, Src: src(domain.StateSendQuestion), Dst: string(domain.StateMenu)},
	{Name: evCancel, Src: allStates, Dst: string(domain.StateMenu)},
	{Name: evChangeLanguage, Src: allStates, Dst: string(domain.StateChooseLanguage)},
}

// transition applies event to from using the transition table.
func transition(ctx context.Context, from domain.State, event string) (domain.State, error) {
	machine := fsm.NewFSM(string(from), transitions, nil)
	if err := machine.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if !errors.As(err, &noTransition) {
			return from, fmt.Errorf("conversation: %s from %s: %w", event, from, err)
		}
	}
	return domain.State(machine.Current()), nil
}
