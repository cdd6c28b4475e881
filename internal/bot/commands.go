package bot

import (
	"fmt"
	"strings"

	"github.com/fastreseller/orderbot/internal/buildinfo"
	"github.com/fastreseller/orderbot/internal/telegram/commands"
	tghelpers "github.com/fastreseller/orderbot/internal/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const msgContacts = "FastReseller\n" +
	"Per assistenza scrivici: support@fastreseller.example\n" +
	"Orari: lun-ven 9:00-18:00"

func (a *App) registerCommands() {
	a.reg.RegisterCommand("/start", commands.Command{
		Handler:     a.beginOrder,
		Description: "Inizia un nuovo ordine",
	})
	a.reg.RegisterCommand("/catalogo", commands.Command{
		Handler:     a.handleCatalog,
		Description: "Mostra prodotti e prezzi",
	})
	a.reg.RegisterCommand("/contatti", commands.Command{
		Handler:     a.handleContacts,
		Description: "Contatti del venditore",
	})
	a.reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "Come funziona il bot",
	})
	a.reg.RegisterCommand("/info", commands.Command{
		Handler:     a.handleInfo,
		Description: "Versione del bot",
		Hidden:      true,
	})

	a.reg.SetTextFallback(func(c tele.Context) error {
		return tghelpers.SendText(c, "Non ho capito. Usa /help per vedere i comandi.")
	})
}

func (a *App) handleCatalog(c tele.Context) error {
	var b strings.Builder
	b.WriteString("Catalogo FastReseller:\n")
	for _, p := range a.catalog.List() {
		fmt.Fprintf(&b, "- %s: %d €\n", p.Name, p.Price)
	}
	b.WriteString("\nUsa /start per ordinare.")
	return tghelpers.SendText(c, b.String())
}

func (a *App) handleContacts(c tele.Context) error {
	return tghelpers.SendText(c, msgContacts)
}

func (a *App) handleHelp(c tele.Context) error {
	help := "Comandi disponibili:\n" +
		"/start - inizia un nuovo ordine\n" +
		"/catalogo - prodotti e prezzi\n" +
		"/contatti - contatti del venditore\n" +
		"/help - questo messaggio\n\n" +
		"Durante l'ordine rispondi ai messaggi del bot: scegli il prodotto, " +
		"indica la quantità, i dettagli di consegna e conferma con 'si' o 'no'."
	return tghelpers.SendText(c, help)
}

func (a *App) handleInfo(c tele.Context) error {
	info := fmt.Sprintf("FastReseller Bot\nversione: %s\ncommit: %s", buildinfo.Version, buildinfo.Commit)
	if buildinfo.Date != "" {
		info += "\nbuild: " + buildinfo.Date
	}
	return tghelpers.SendText(c, info)
}
