package call

import "fmt"

// promptKey selects one phrase from the multilingual prompt table.
type promptKey string

const (
	promptGreeting      promptKey = "greeting"
	promptUnknownIntent promptKey = "unknown_intent"
	promptAnythingElse  promptKey = "anything_else"
	promptFarewell      promptKey = "farewell"
	promptCrisisHotline promptKey = "crisis_hotline"
	promptToolTrouble   promptKey = "tool_trouble"

	promptAvailability promptKey = "availability"
	promptNoCapacity   promptKey = "no_capacity"
	promptAskName      promptKey = "ask_name"
	promptAskSituation promptKey = "ask_situation"
	promptAskNeeds     promptKey = "ask_needs"
	promptConfirmBed   promptKey = "confirm_bed"
	promptBedConfirmed promptKey = "bed_confirmed"
	promptAlreadyDone  promptKey = "already_done"

	promptDonationInfo   promptKey = "donation_info"
	promptRulesInfo      promptKey = "rules_info"
	promptDirectionsInfo promptKey = "directions_info"

	promptAskChapelDate    promptKey = "ask_chapel_date"
	promptAskChapelTime    promptKey = "ask_chapel_time"
	promptAskChapelGroup   promptKey = "ask_chapel_group"
	promptAskChapelContact promptKey = "ask_chapel_contact"
	promptConfirmChapel    promptKey = "confirm_chapel"
	promptChapelConfirmed  promptKey = "chapel_confirmed"
	promptChapelWeekend    promptKey = "chapel_weekend"
	promptChapelSlotTaken  promptKey = "chapel_slot_taken"
	promptChapelBadInput   promptKey = "chapel_bad_input"

	promptAskVolName         promptKey = "ask_vol_name"
	promptAskVolPhone        promptKey = "ask_vol_phone"
	promptAskVolAvailability promptKey = "ask_vol_availability"
	promptAskVolInterests    promptKey = "ask_vol_interests"
	promptConfirmVolunteer   promptKey = "confirm_volunteer"
	promptVolunteerConfirmed promptKey = "volunteer_confirmed"
)

// prompt returns the phrase for a language, falling back to English for
// languages or keys the table does not cover. Arguments fill the
// phrase's format verbs.
func prompt(language string, key promptKey, args ...any) string {
	table, ok := prompts[language]
	if !ok {
		table = prompts["en"]
	}
	text, ok := table[key]
	if !ok {
		text = prompts["en"][key]
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

var prompts = map[string]map[promptKey]string{
	"en": {
		promptGreeting:      "Thank you for calling Bethesda Mission. I can help with a bed for tonight, chapel services, volunteering, or donations. How can I help you?",
		promptUnknownIntent: "I'm sorry, I didn't catch that. I can help with a bed for tonight, chapel services, volunteering, or donations.",
		promptAnythingElse:  "Okay. Is there anything else I can help you with?",
		promptFarewell:      "Thank you for calling Bethesda Mission. God bless, and goodbye.",
		promptCrisisHotline: "I hear you, and your life matters. Please call or text the Suicide and Crisis Lifeline at 988 right now, they are available around the clock. Would you like me to stay on the line while you do?",
		promptToolTrouble:   "I'm sorry, I'm having trouble with that right now. Please try again in a moment.",

		promptAvailability: "We have %d beds available tonight. Can I get your name to reserve one?",
		promptNoCapacity:   "I'm very sorry, all of our beds are taken tonight. Please call the county shelter line at 211 for other options.",
		promptAskName:      "Can I get your name, please?",
		promptAskSituation: "Thank you, %s. Can you briefly tell me your situation?",
		promptAskNeeds:     "Is there anything you need tonight, like a shower or a meal? You can say none.",
		promptConfirmBed:   "Alright %s, should I reserve a bed for you tonight? The bed is held for three hours.",
		promptBedConfirmed: "Your bed is reserved. Bed number %d, confirmation code %s. Please arrive within three hours or the bed is released. See you soon.",
		promptAlreadyDone:  "You're all set, your confirmation code is %s for bed %d. Is there anything else?",

		promptDonationInfo:   "Thank you for thinking of us. Donations can be dropped off at 611 Reily Street weekdays nine to five, or made online at bethesdamission dot org.",
		promptRulesInfo:      "Doors open at seven in the evening. We ask guests to be sober on arrival, and check-in closes at ten. Beds held by phone are kept for three hours.",
		promptDirectionsInfo: "We're at 611 Reily Street in Harrisburg, two blocks north of the Broad Street Market.",

		promptAskChapelDate:    "Wonderful. What date would your group like to lead chapel? Please give it as year, month, day.",
		promptAskChapelTime:    "We have chapel at ten in the morning, one in the afternoon, and seven in the evening. Which start time works, 10:00, 13:00, or 19:00?",
		promptAskChapelGroup:   "What is the name of your group or church?",
		promptAskChapelContact: "And a contact name and phone number for the booking?",
		promptConfirmChapel:    "I have %s leading chapel on %s at %s. Shall I book it?",
		promptChapelConfirmed:  "You're booked for chapel on %s at %s. Thank you for serving with us.",
		promptChapelWeekend:    "Our chapel services run on weekdays only. Could you pick a weekday date?",
		promptChapelSlotTaken:  "I'm sorry, that slot is already taken. Could you pick another time or date?",
		promptChapelBadInput:   "I'm sorry, I couldn't use that. %s",

		promptAskVolName:         "We'd love your help. Can I get your name?",
		promptAskVolPhone:        "Thanks, %s. What's the best phone number to reach you?",
		promptAskVolAvailability: "When are you generally available, weekdays, evenings, or weekends?",
		promptAskVolInterests:    "What would you like to help with, for example meals, chapel, or the front desk?",
		promptConfirmVolunteer:   "Great. Should I register you as a volunteer with what you've told me?",
		promptVolunteerConfirmed: "You're registered. Our volunteer coordinator will call you within a few days. Thank you, %s.",
	},
	"es": {
		promptGreeting:      "Gracias por llamar a Bethesda Mission. Puedo ayudarle con una cama para esta noche, servicios de capilla, voluntariado o donaciones. ¿Cómo puedo ayudarle?",
		promptUnknownIntent: "Lo siento, no le entendí. Puedo ayudarle con una cama, servicios de capilla, voluntariado o donaciones.",
		promptAnythingElse:  "De acuerdo. ¿Hay algo más en que pueda ayudarle?",
		promptFarewell:      "Gracias por llamar a Bethesda Mission. Que Dios le bendiga, adiós.",
		promptCrisisHotline: "Le escucho, y su vida importa. Por favor llame ahora a la Línea de Prevención del Suicidio al 988, están disponibles a toda hora. ¿Quiere que me quede en la línea mientras llama?",
		promptToolTrouble:   "Lo siento, tengo un problema en este momento. Por favor intente de nuevo en un momento.",

		promptAvailability: "Tenemos %d camas disponibles esta noche. ¿Me da su nombre para reservar una?",
		promptNoCapacity:   "Lo siento mucho, todas nuestras camas están ocupadas esta noche. Por favor llame al 211 para otras opciones.",
		promptAskName:      "¿Me da su nombre, por favor?",
		promptAskSituation: "Gracias, %s. ¿Puede contarme brevemente su situación?",
		promptAskNeeds:     "¿Necesita algo esta noche, como una ducha o una comida? Puede decir ninguna.",
		promptConfirmBed:   "Muy bien %s, ¿reservo una cama para usted esta noche? La cama se guarda por tres horas.",
		promptBedConfirmed: "Su cama está reservada. Cama número %d, código de confirmación %s. Por favor llegue dentro de tres horas o la cama se libera. Hasta pronto.",
		promptAlreadyDone:  "Ya está listo, su código de confirmación es %s para la cama %d. ¿Algo más?",

		promptDonationInfo:   "Gracias por pensar en nosotros. Puede dejar donaciones en 611 Reily Street de lunes a viernes de nueve a cinco, o donar en línea en bethesdamission punto org.",
		promptRulesInfo:      "Las puertas abren a las siete de la tarde. Pedimos llegar sobrio, y el registro cierra a las diez. Las camas reservadas por teléfono se guardan tres horas.",
		promptDirectionsInfo: "Estamos en 611 Reily Street en Harrisburg, a dos cuadras al norte del Broad Street Market.",
	},
	"pt": {
		promptGreeting:      "Obrigado por ligar para a Bethesda Mission. Posso ajudar com uma cama para esta noite, cultos na capela, voluntariado ou doações. Como posso ajudar?",
		promptUnknownIntent: "Desculpe, não entendi. Posso ajudar com uma cama, cultos na capela, voluntariado ou doações.",
		promptAnythingElse:  "Certo. Posso ajudar com mais alguma coisa?",
		promptFarewell:      "Obrigado por ligar para a Bethesda Mission. Deus abençoe, tchau.",
		promptCrisisHotline: "Eu ouço você, e a sua vida importa. Por favor ligue agora para a Linha de Prevenção ao Suicídio no 988, disponível a qualquer hora. Quer que eu fique na linha enquanto você liga?",
		promptToolTrouble:   "Desculpe, estou com um problema agora. Por favor tente de novo em um momento.",

		promptAvailability: "Temos %d camas disponíveis esta noite. Pode me dizer seu nome para reservar uma?",
		promptNoCapacity:   "Sinto muito, todas as nossas camas estão ocupadas esta noite. Por favor ligue para o 211 para outras opções.",
		promptAskName:      "Pode me dizer seu nome, por favor?",
		promptAskSituation: "Obrigado, %s. Pode me contar brevemente a sua situação?",
		promptAskNeeds:     "Precisa de algo esta noite, como banho ou refeição? Pode dizer nada.",
		promptConfirmBed:   "Certo %s, devo reservar uma cama para você esta noite? A cama fica guardada por três horas.",
		promptBedConfirmed: "Sua cama está reservada. Cama número %d, código de confirmação %s. Por favor chegue em até três horas ou a cama é liberada. Até logo.",
		promptAlreadyDone:  "Tudo certo, seu código de confirmação é %s para a cama %d. Mais alguma coisa?",
	},
	"fr": {
		promptGreeting:      "Merci d'appeler Bethesda Mission. Je peux vous aider pour un lit ce soir, les offices à la chapelle, le bénévolat ou les dons. Comment puis-je vous aider?",
		promptUnknownIntent: "Désolé, je n'ai pas compris. Je peux vous aider pour un lit, la chapelle, le bénévolat ou les dons.",
		promptAnythingElse:  "D'accord. Puis-je vous aider avec autre chose?",
		promptFarewell:      "Merci d'avoir appelé Bethesda Mission. Que Dieu vous bénisse, au revoir.",
		promptCrisisHotline: "Je vous entends, et votre vie compte. Appelez maintenant la ligne de prévention du suicide au 988, disponible jour et nuit. Voulez-vous que je reste en ligne pendant que vous appelez?",
		promptToolTrouble:   "Désolé, j'ai un problème en ce moment. Veuillez réessayer dans un instant.",

		promptAvailability: "Nous avons %d lits disponibles ce soir. Puis-je avoir votre nom pour en réserver un?",
		promptNoCapacity:   "Je suis désolé, tous nos lits sont pris ce soir. Appelez le 211 pour d'autres options.",
		promptAskName:      "Puis-je avoir votre nom, s'il vous plaît?",
		promptAskSituation: "Merci, %s. Pouvez-vous me décrire brièvement votre situation?",
		promptAskNeeds:     "Avez-vous besoin de quelque chose ce soir, comme une douche ou un repas? Vous pouvez dire rien.",
		promptConfirmBed:   "Très bien %s, dois-je réserver un lit pour vous ce soir? Le lit est gardé trois heures.",
		promptBedConfirmed: "Votre lit est réservé. Lit numéro %d, code de confirmation %s. Merci d'arriver dans les trois heures, sinon le lit est libéré. À bientôt.",
		promptAlreadyDone:  "C'est fait, votre code de confirmation est %s pour le lit %d. Autre chose?",
	},
}

// yesWords and noWords cover confirmations across the supported languages.
var yesWords = []string{
	"yes", "yeah", "yep", "sure", "okay", "ok", "correct", "right", "please",
	"sí", "si", "claro", "correcto",
	"sim", "isso",
	"oui", "d'accord",
}

var noWords = []string{
	"no", "nope", "not", "cancel",
	"não", "nao",
	"non",
}
