package appointments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"intake/db"
	"intake/globals"
	"intake/utils"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
	"go.mongodb.org/mongo-driver/bson"
)

// slipQRPayload returns appointmentId|confirmationCode|timestamp|signature.
// The front desk scanner verifies the HMAC before checking the visitor in.
func slipQRPayload(appointmentID, confirmationCode string) string {
	data := fmt.Sprintf("%s|%s|%d", appointmentID, confirmationCode, time.Now().Unix())

	h := hmac.New(sha256.New, globals.JwtSecret)
	h.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(h.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// PrintSlip renders the caller's appointment as a printable PDF slip with
// a check-in QR code.
func PrintSlip(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := utils.GetUserIDFromRequest(r)
	if userID == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var appt Appointment
	err := db.AppointmentsCollection.FindOne(ctx, bson.M{
		"appointmentId": ps.ByName("id"),
		"userId":        userID,
	}).Decode(&appt)
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Appointment not found")
		return
	}
	if appt.Status == "cancelled" {
		utils.RespondWithError(w, http.StatusConflict, "Appointment is cancelled")
		return
	}

	qrPNG, err := qrcode.Encode(slipQRPayload(appt.AppointmentID, appt.ConfirmationCode), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Appointment Slip")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	if visitor := utils.GetUsernameFromRequest(r); visitor != "" {
		pdf.Cell(0, 10, fmt.Sprintf("Visitor: %s", visitor))
		pdf.Ln(8)
	}
	pdf.Cell(0, 10, fmt.Sprintf("Location: %s", appt.HubName))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Date: %s", appt.Date))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Time: %s", appt.Time))
	pdf.Ln(8)
	pdf.Cell(0, 10, fmt.Sprintf("Confirmation: %s", appt.ConfirmationCode))
	pdf.Ln(12)

	imageOpts := gofpdf.ImageOptions{
		ImageType: "PNG",
	}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 40, 40, 40, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate slip")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=appointment-%s.pdf", appt.AppointmentID))
	w.Write(buf.Bytes())
}
