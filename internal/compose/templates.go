package compose

import (
	"github.com/soyeahso/frontdesk/internal/dialog"
	"github.com/soyeahso/frontdesk/internal/domain"
)

// Templates maps (prompt, language) to message text. Placeholders in braces
// are filled by the composer; unknown placeholders are left as written.
type Templates map[dialog.Prompt]map[domain.Language]string

const (
	en = domain.LanguageEnglish
	hi = domain.LanguageHindi
	mr = domain.LanguageMarathi
)

// DefaultTemplates is the pre-authored phrase book.
var DefaultTemplates = Templates{
	dialog.PromptLanguageMenu: {
		en: "Welcome to {business}. For English press 1. हिंदी के लिए 2 दबाएं. मराठीसाठी 3 दाबा.",
		hi: "{business} में आपका स्वागत है. For English press 1. हिंदी के लिए 2 दबाएं. मराठीसाठी 3 दाबा.",
		mr: "{business} मध्ये आपले स्वागत आहे. For English press 1. हिंदी के लिए 2 दबाएं. मराठीसाठी 3 दाबा.",
	},
	dialog.PromptWelcome: {
		en: "Welcome to {business}. {menu}",
		hi: "{business} में आपका स्वागत है. {menu}",
		mr: "{business} मध्ये आपले स्वागत आहे. {menu}",
	},
	dialog.PromptMainMenu: {
		en: "{menu}",
		hi: "{menu}",
		mr: "{menu}",
	},
	menuText: {
		en: "To book a shoot press 1, to track an order press 2, for prices press 3, for help press 0, or press 9 to end the call. You can also just tell me what you need.",
		hi: "शूट बुक करने के लिए 1 दबाएं, ऑर्डर ट्रैक करने के लिए 2, कीमतों के लिए 3, मदद के लिए 0, या कॉल खत्म करने के लिए 9 दबाएं. आप बोलकर भी बता सकते हैं.",
		mr: "शूट बुक करण्यासाठी 1 दाबा, ऑर्डर ट्रॅक करण्यासाठी 2, किंमतींसाठी 3, मदतीसाठी 0, किंवा कॉल संपवण्यासाठी 9 दाबा. तुम्ही बोलूनही सांगू शकता.",
	},
	dialog.PromptAskName: {
		en: "Sure, let's book your shoot. May I have your name?",
		hi: "ज़रूर, चलिए आपका शूट बुक करते हैं. आपका नाम क्या है?",
		mr: "नक्की, तुमचे शूट बुक करूया. तुमचे नाव काय आहे?",
	},
	dialog.PromptAskService: {
		en: "Thank you{nameSuffix}. Which service would you like? {services}",
		hi: "धन्यवाद{nameSuffix}. आपको कौन सी सेवा चाहिए? {services}",
		mr: "धन्यवाद{nameSuffix}. तुम्हाला कोणती सेवा हवी आहे? {services}",
	},
	dialog.PromptAskDate: {
		en: "{service}, great choice. On which date would you like the shoot? You can say a day like tomorrow or Friday, or a date.",
		hi: "{service}, बढ़िया. आप शूट किस तारीख को चाहते हैं? आप कल, शुक्रवार या कोई तारीख बता सकते हैं.",
		mr: "{service}, छान निवड. शूट कोणत्या तारखेला हवे आहे? तुम्ही उद्या, शुक्रवार किंवा तारीख सांगू शकता.",
	},
	dialog.PromptAskContact: {
		en: "Noted for {date}{time}. What number can we reach you on? You can also say same number.",
		hi: "{date}{time} नोट कर लिया. हम आपसे किस नंबर पर संपर्क करें? आप इसी नंबर भी कह सकते हैं.",
		mr: "{date}{time} नोंदवले. आम्ही तुम्हाला कोणत्या नंबरवर संपर्क करू? तुम्ही याच नंबर असेही सांगू शकता.",
	},
	dialog.PromptInvalidName: {
		en: "Sorry, I didn't get your name.",
		hi: "माफ़ कीजिए, मैं आपका नाम समझ नहीं पाया.",
		mr: "माफ करा, मला तुमचे नाव समजले नाही.",
	},
	dialog.PromptInvalidService: {
		en: "Sorry, I couldn't match that to one of our services.",
		hi: "माफ़ कीजिए, यह हमारी किसी सेवा से मेल नहीं खाता.",
		mr: "माफ करा, हे आमच्या कोणत्याही सेवेशी जुळत नाही.",
	},
	dialog.PromptInvalidDate: {
		en: "Sorry, I couldn't understand that date, or it has already passed.",
		hi: "माफ़ कीजिए, वह तारीख समझ नहीं आई या बीत चुकी है.",
		mr: "माफ करा, ती तारीख समजली नाही किंवा ती उलटून गेली आहे.",
	},
	dialog.PromptInvalidContact: {
		en: "Sorry, that doesn't sound like a phone number.",
		hi: "माफ़ कीजिए, यह फ़ोन नंबर नहीं लगता.",
		mr: "माफ करा, हा फोन नंबर वाटत नाही.",
	},
	dialog.PromptBookingConfirmed: {
		en: "Thank you {name}. Your {service} is booked for {date}{time}. Your booking ID is {bookingId}. We will call you on {contact} to confirm. Is there anything else I can help with?",
		hi: "धन्यवाद {name}. आपका {service} {date}{time} के लिए बुक हो गया है. आपकी बुकिंग आईडी {bookingId} है. पुष्टि के लिए हम आपको {contact} पर कॉल करेंगे. क्या मैं और कुछ मदद कर सकता हूँ?",
		mr: "धन्यवाद {name}. तुमचे {service} {date}{time} साठी बुक झाले आहे. तुमचा बुकिंग आयडी {bookingId} आहे. खात्रीसाठी आम्ही तुम्हाला {contact} वर कॉल करू. आणखी काही मदत हवी आहे का?",
	},
	dialog.PromptAskOrder: {
		en: "Please say or enter your order number.",
		hi: "कृपया अपना ऑर्डर नंबर बोलें या दबाएं.",
		mr: "कृपया तुमचा ऑर्डर नंबर सांगा किंवा दाबा.",
	},
	dialog.PromptTrackingStatus: {
		en: "Order {order} for {service} on {date} is {status}. Anything else?",
		hi: "{date} के {service} का ऑर्डर {order} की स्थिति: {status}. और कुछ?",
		mr: "{date} च्या {service} चा ऑर्डर {order} ची स्थिती: {status}. आणखी काही?",
	},
	dialog.PromptTrackingNotFound: {
		en: "I couldn't find an order with number {order}. Please check the number and try again from the menu.",
		hi: "{order} नंबर का कोई ऑर्डर नहीं मिला. कृपया नंबर जाँच कर मेन्यू से फिर कोशिश करें.",
		mr: "{order} नंबरचा कोणताही ऑर्डर सापडला नाही. कृपया नंबर तपासून मेन्यूमधून पुन्हा प्रयत्न करा.",
	},
	dialog.PromptTrackingFailed: {
		en: "I can't look up orders right now. Please try again later. {menu}",
		hi: "अभी ऑर्डर की जानकारी नहीं मिल पा रही है. कृपया बाद में कोशिश करें. {menu}",
		mr: "सध्या ऑर्डरची माहिती मिळू शकत नाही. कृपया नंतर प्रयत्न करा. {menu}",
	},
	dialog.PromptPriceList: {
		en: "Our prices are: {prices}. We are open {hours}. Thank you for calling {business}. Goodbye.",
		hi: "हमारी कीमतें: {prices}. हमारा समय: {hours}. {business} को कॉल करने के लिए धन्यवाद. नमस्ते.",
		mr: "आमच्या किंमती: {prices}. आमची वेळ: {hours}. {business} ला कॉल केल्याबद्दल धन्यवाद. नमस्कार.",
	},
	dialog.PromptAnswer: {
		en: "{answer} Is there anything else?",
		hi: "{answer} और कुछ?",
		mr: "{answer} आणखी काही?",
	},
	dialog.PromptUnclear: {
		en: "Sorry, I didn't catch that.",
		hi: "माफ़ कीजिए, मैं समझ नहीं पाया.",
		mr: "माफ करा, मला समजले नाही.",
	},
	dialog.PromptEscalated: {
		en: "Let's start again from the main menu.",
		hi: "चलिए मेन्यू से फिर शुरू करते हैं.",
		mr: "चला, मेन्यूपासून पुन्हा सुरू करूया.",
	},
	dialog.PromptGoodbye: {
		en: "Thank you for calling {business}. Goodbye.",
		hi: "{business} को कॉल करने के लिए धन्यवाद. नमस्ते.",
		mr: "{business} ला कॉल केल्याबद्दल धन्यवाद. नमस्कार.",
	},
	dialog.PromptTechnical: {
		en: "We are facing a technical difficulty. Please try again later. Goodbye.",
		hi: "हमें तकनीकी समस्या आ रही है. कृपया बाद में कोशिश करें. नमस्ते.",
		mr: "आम्हाला तांत्रिक अडचण येत आहे. कृपया नंतर प्रयत्न करा. नमस्कार.",
	},
	dialog.PromptInvalidRequest: {
		en: "Sorry, this call could not be found. Please call again.",
		hi: "माफ़ कीजिए, यह कॉल नहीं मिली. कृपया फिर से कॉल करें.",
		mr: "माफ करा, हा कॉल सापडला नाही. कृपया पुन्हा कॉल करा.",
	},
}

// menuText is the shared menu body referenced as {menu}.
const menuText dialog.Prompt = "menu"

// Lookup returns the text for key in lang, falling back to English.
func (t Templates) Lookup(key dialog.Prompt, lang domain.Language) (string, bool) {
	byLang, ok := t[key]
	if !ok {
		return "", false
	}
	if s, ok := byLang[lang]; ok && s != "" {
		return s, true
	}
	s, ok := byLang[en]
	return s, ok && s != ""
}
