package i18n

var russian = map[string]string{
	KeyChooseLanguage:     "Выберите, пожалуйста, язык",
	KeyInvalidLanguage:    "Пожалуйста, выберите корректное значение",
	KeyWelcome:            "Семинар «Современные вызовы в птицеводстве Узбекистана I» Ташкент 2024.",
	KeyInvalidMenuOption:  "Пожалуйста, выберите пункт меню",
	KeyButtonPlan:         "Программа семинара",
	KeyButtonRegister:     "Зарегистрироваться",
	KeyButtonAsk:          "Задать вопрос",
	KeyButtonChangeLang:   "Изменить язык",
	KeyButtonCancel:       "Отмена",
	KeyButtonSendContact:  "Отправить контакт",
	KeyButtonYes:          "Да",
	KeyButtonNo:           "Нет",
	KeyCancelled:          "Отмена",
	KeyAlreadyRegistered:  "Вы уже зарегистрированы",
	KeyEnterName:          "Пожалуйста, введите Ваше имя",
	KeyNameTooLong:        "Имя слишком длинное",
	KeyEnterOrganization:  "Введите название организации",
	KeyOrgTooLong:         "Название слишком длинное",
	KeyEnterPhone:         "Пожалуйста, отправьте контакт нажав на кнопку ниже или номер телефона в формате +998XXXXXXXXX",
	KeyInvalidPhone:       "Некорректные данные, пожалуйста, попробуйте снова. Отправьте номер телефона в формате +998XXXXXXXXX либо отправьте контакт.",
	KeyChooseDate:         "Пожалуйста, выберите дату семинара",
	KeyDateFirst:          "5 марта",
	KeyDateSecond:         "6 марта",
	KeyInvalidOption:      "Пожалуйста, выберите корректный вариант",
	KeyNeedHotel:          "Нужен ли Вам номер в гостинице?",
	KeyRegistrationDone:   "Ваша заявка принята. Спасибо за регистрацию!",
	KeyRegistrationFailed: "Заявка не принята. Пожалуйста, попробуйте ещё раз.",
	KeyChooseSpeaker:      "Выберите спикера, которому вы хотите задать вопрос",
	KeyInvalidSpeaker:     "Некорректный ввод. Выберите спикера из списка ниже",
	KeyEnterQuestion:      "Введите свой вопрос",
	KeyQuestionTooLong:    "Сообщение слишком длинное",
	KeyQuestionRejected:   "Этот вопрос не может быть отправлен",
	KeyQuestionSent:       "Сообщение отправлено. Скоро мы ответим",
	KeyPlanUnavailable:    "Программа семинара пока недоступна",
	KeySomethingWrong:     "Что-то пошло не так. Пожалуйста, попробуйте позже.",
}

var uzbek = map[string]string{
	KeyChooseLanguage:     "Iltimos, tilni tanlang",
	KeyInvalidLanguage:    "Iltimos, to'g'ri qiymatni tanlang",
	KeyWelcome:            "«O'zbekiston parrandachiligidagi zamonaviy muammolar I» seminari Toshkent 2024.",
	KeyInvalidMenuOption:  "Iltimos, menyu bandini tanlang",
	KeyButtonPlan:         "Seminar dasturi",
	KeyButtonRegister:     "Ro'yxatdan o'tish",
	KeyButtonAsk:          "Savol berish",
	KeyButtonChangeLang:   "Tilni o'zgartirish",
	KeyButtonCancel:       "Bekor qilish",
	KeyButtonSendContact:  "Kontaktni yuborish",
	KeyButtonYes:          "Ha",
	KeyButtonNo:           "Yo'q",
	KeyCancelled:          "Bekor qilindi",
	KeyAlreadyRegistered:  "Siz allaqachon ro'yxatdan o'tgansiz",
	KeyEnterName:          "Iltimos, ismingizni kiriting",
	KeyNameTooLong:        "Ism juda uzun",
	KeyEnterOrganization:  "Tashkilot nomini kiriting",
	KeyOrgTooLong:         "Nomi juda uzun",
	KeyEnterPhone:         "Iltimos, quyidagi tugmani bosib kontaktni yoki telefon raqamini +998XXXXXXXXX formatida yuboring",
	KeyInvalidPhone:       "Noto'g'ri ma'lumot, iltimos, qaytadan urinib ko'ring. Telefon raqamini +998XXXXXXXXX formatida yoki kontaktni yuboring.",
	KeyChooseDate:         "Iltimos, seminar sanasini tanlang",
	KeyDateFirst:          "5 mart",
	KeyDateSecond:         "6 mart",
	KeyInvalidOption:      "Iltimos, to'g'ri variantni tanlang",
	KeyNeedHotel:          "Sizga mehmonxonada xona kerakmi?",
	KeyRegistrationDone:   "Arizangiz qabul qilindi. Ro'yxatdan o'tganingiz uchun rahmat!",
	KeyRegistrationFailed: "Ariza qabul qilinmadi. Iltimos, qaytadan urinib ko'ring.",
	KeyChooseSpeaker:      "Savol bermoqchi bo'lgan spikerni tanlang",
	KeyInvalidSpeaker:     "Noto'g'ri kiritish. Quyidagi ro'yxatdan spikerni tanlang",
	KeyEnterQuestion:      "Savolingizni kiriting",
	KeyQuestionTooLong:    "Xabar juda uzun",
	KeyQuestionRejected:   "Bu savolni yuborib bo'lmaydi",
	KeyQuestionSent:       "Xabar yuborildi. Tez orada javob beramiz",
	KeyPlanUnavailable:    "Seminar dasturi hozircha mavjud emas",
	KeySomethingWrong:     "Xatolik yuz berdi. Iltimos, keyinroq urinib ko'ring.",
}
