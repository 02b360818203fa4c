package conversation

import (
	"seminar-bot/internal/domain"
	"seminar-bot/internal/i18n"
)

func row(texts ...string) []domain.Button {
	buttons := make([]domain.Button, len(texts))
	for i, t := range texts {
		buttons[i] = domain.Button{Text: t}
	}
	return buttons
}

func languageKeyboard() *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(languageOptions))
	for _, opt := range languageOptions {
		rows = append(rows, row(opt.label))
	}
	return &domain.Keyboard{Rows: rows}
}

func (t *turn) menuKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		row(t.text(i18n.KeyButtonPlan)),
		row(t.text(i18n.KeyButtonRegister)),
		row(t.text(i18n.KeyButtonAsk)),
		row(t.text(i18n.KeyButtonChangeLang)),
	}}
}

func (t *turn) cancelRow() []domain.Button {
	return row(t.text(i18n.KeyButtonCancel))
}

func (t *turn) cancelKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{t.cancelRow()}}
}

func (t *turn) phoneKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		{{Text: t.text(i18n.KeyButtonSendContact), RequestContact: true}},
		t.cancelRow(),
	}}
}

func (t *turn) dateKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		row(t.dateOptions()...),
		t.cancelRow(),
	}}
}

func (t *turn) hotelKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]domain.Button{
		row(t.text(i18n.KeyButtonYes), t.text(i18n.KeyButtonNo)),
		t.cancelRow(),
	}}
}

func (t *turn) speakerKeyboard(speakers []string) *domain.Keyboard {
	rows := make([][]domain.Button, 0, len(speakers)+1)
	for _, s := range speakers {
		rows = append(rows, row(s))
	}
	rows = append(rows, t.cancelRow())
	return &domain.Keyboard{Rows: rows}
}
