// File: internal/flows/templates.go
package flows

import "github.com/pkarlgren/bryggan/internal/vision"

// Template names used by the pipeline. A signature template confirms a
// window or dialog is present; the rest are anchors for clicks.
const (
	// LIME (CRM)
	TplLimeSignature = "lime_signature"
	TplLimeBtnTick   = "lime_btn_pricka_av"
	TplLimeLblTjanst = "lime_lbl_tjanstenummer"
	TplLimeLblKundNr = "lime_lbl_kundnummer"

	// BFUS (billing, main window)
	TplBfusSignature     = "bfus_signature"
	TplBfusBtnSokTjanst  = "bfus_btn_soktjanst"
	TplBfusBtnSpara      = "bfus_btn_spara"
	TplBfusBtnSkapaAvtal = "bfus_btn_skapa_avtal"
	TplBfusLblTjanst     = "bfus_lbl_tjanstenummer"
	TplBfusLblAnlID      = "bfus_lbl_anlaggnings_id"
	TplBfusLblSaking     = "bfus_lbl_saking"

	// BFUS popup "Sök tjänst"
	TplPopupSignature  = "bfus_popup_signature"
	TplPopupLblTjanst  = "bfus_popup_lbl_tjanstenummer"
	TplPopupBtnSok     = "bfus_popup_btn_sok"
	TplPopupTreeHeader = "bfus_popup_tree_header_nyhet"
	TplPopupBtnOK      = "bfus_popup_btn_ok"

	// BFUS wizard "Skapa avtal"
	TplAvtalSignature     = "avtal_signature"
	TplAvtalLblCompany    = "avtal_lbl_company"
	TplAvtalLblGoal       = "avtal_lbl_goal"
	TplAvtalLblKundNr     = "avtal_lbl_kundnr"
	TplAvtalBtnCalendar   = "avtal_btn_kalender"
	TplCalendarSignature  = "calendar_signature"
	TplCalendarFirstDate  = "calendar_first_date"
	TplCalendarBtnOK      = "calendar_btn_ok"
	TplAvtalLblForbruk    = "avtal_lbl_forbruk"
	TplAvtalBtnNext       = "avtal_btn_next"
	TplAvtalBtnSokProdukt = "avtal_btn_sok_produkt"
	TplAvtalBtnSok        = "avtal_btn_sok"
	TplAvtalLblDebSatt    = "avtal_lbl_deb_satt"
	TplAvtalLblDebFormel  = "avtal_lbl_deb_formel"
	TplAvtalLblPP1        = "avtal_lbl_pp1"
	TplAvtalLblPP2        = "avtal_lbl_pp2"
	TplAvtalLblKundRef    = "avtal_lbl_kundref"
	TplAvtalBtnSpara      = "avtal_btn_spara"

	// Generic dialogs
	TplMsgboxOK      = "msgbox_ok"
	TplMsgboxAvtalOK = "msgbox_avtal_ok"
)

// Catalog is the fixed set of template references the active pipeline can
// use. Presence of every asset is a precondition for a successful run; the
// registry fails fast at startup on a missing one.
func Catalog() []vision.TemplateRef {
	return []vision.TemplateRef{
		{Name: TplLimeSignature, File: "lime_signature_topbar.png", Threshold: 0.75},
		{Name: TplLimeBtnTick, File: "lime_btn_pricka_av.png", Threshold: 0.75},
		{Name: TplLimeLblTjanst, File: "lime_lbl_tjanstenummer.png", Threshold: 0.78},
		{Name: TplLimeLblKundNr, File: "lime_lbl_kundnummer.png", Threshold: 0.78},

		{Name: TplBfusSignature, File: "bfus_signature_header.png", Threshold: 0.75},
		{Name: TplBfusBtnSokTjanst, File: "bfus_btn_soktjanst.png", Threshold: 0.78},
		{Name: TplBfusBtnSpara, File: "bfus_btn_spara.png", Threshold: 0.78},
		{Name: TplBfusBtnSkapaAvtal, File: "bfus_btn_skapa_avtal.png", Threshold: 0.78},
		{Name: TplBfusLblTjanst, File: "bfus_lbl_tjanstenummer.png", Threshold: 0.78},
		{Name: TplBfusLblAnlID, File: "bfus_lbl_anlaggnings_id.png", Threshold: 0.78},
		{Name: TplBfusLblSaking, File: "bfus_lbl_saking.png", Threshold: 0.78},

		{Name: TplPopupSignature, File: "bfus_popup_sok_tjanst_title.png", Threshold: 0.75},
		{Name: TplPopupLblTjanst, File: "bfus_popup_lbl_tjanstenummer.png", Threshold: 0.78},
		{Name: TplPopupBtnSok, File: "bfus_popup_btn_sok.png", Threshold: 0.78},
		{Name: TplPopupTreeHeader, File: "bfus_popup_tree_header_nyhet.png", Threshold: 0.75},
		{Name: TplPopupBtnOK, File: "bfus_popup_btn_ok.png", Threshold: 0.75},

		{Name: TplAvtalSignature, File: "bfus_avtal_signature_title.png", Threshold: 0.75},
		{Name: TplAvtalLblCompany, File: "bfus_avtal_lbl_avtalsagande_foretag.png", Threshold: 0.75},
		{Name: TplAvtalLblGoal, File: "bfus_avtal_lbl_avtalsmal.png", Threshold: 0.75},
		{Name: TplAvtalLblKundNr, File: "bfus_avtal_lbl_kundnummer.png", Threshold: 0.75},
		{Name: TplAvtalBtnCalendar, File: "bfus_avtal_btn_kalender.png", Threshold: 0.75},
		{Name: TplCalendarSignature, File: "bfus_calendar_signature_title.png", Threshold: 0.75},
		{Name: TplCalendarFirstDate, File: "bfus_calendar_first_date.png", Threshold: 0.70},
		{Name: TplCalendarBtnOK, File: "bfus_calendar_btn_ok.png", Threshold: 0.70},
		{Name: TplAvtalLblForbruk, File: "bfus_avtal_lbl_forbrukartyp.png", Threshold: 0.75},
		{Name: TplAvtalBtnNext, File: "bfus_avtal_btn_nasta.png", Threshold: 0.75},
		{Name: TplAvtalBtnSokProdukt, File: "bfus_avtal_btn_sok_produkt.png", Threshold: 0.75},
		{Name: TplAvtalBtnSok, File: "bfus_avtal_btn_sok.png", Threshold: 0.75},
		{Name: TplAvtalLblDebSatt, File: "bfus_avtal_lbl_debiteringssatt.png", Threshold: 0.75},
		{Name: TplAvtalLblDebFormel, File: "bfus_avtal_lbl_debiteringsformel.png", Threshold: 0.75},
		{Name: TplAvtalLblPP1, File: "bfus_avtal_lbl_prisparameter1.png", Threshold: 0.75},
		{Name: TplAvtalLblPP2, File: "bfus_avtal_lbl_prisparameter2.png", Threshold: 0.75},
		{Name: TplAvtalLblKundRef, File: "bfus_avtal_lbl_kundreferens.png", Threshold: 0.75},
		{Name: TplAvtalBtnSpara, File: "bfus_avtal_btn_spara_avtal.png", Threshold: 0.75},

		{Name: TplMsgboxOK, File: "msgbox_ok_button.png", Threshold: 0.70},
		{Name: TplMsgboxAvtalOK, File: "msgbox_avtal_saved_ok.png", Threshold: 0.70},
	}
}
