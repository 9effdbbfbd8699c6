package notification

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/mediqueue/clinic-api/internal/config"
	"github.com/mediqueue/clinic-api/internal/model"
)

// Service sends best-effort appointment emails. Delivery failures are logged
// and never propagated to the request that triggered them.
type Service interface {
	AppointmentConfirmed(appointment *model.Appointment)
	AppointmentCancelled(appointment *model.Appointment)
}

type mailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailService(cfg config.SMTPConfig) Service {
	return &mailService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *mailService) AppointmentConfirmed(appointment *model.Appointment) {
	subject := "Your appointment is confirmed"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with Dr. %s on %s at %s has been confirmed.\n",
		appointment.PatientName, appointment.DoctorName, appointment.Date, appointment.StartTime,
	)
	s.send(appointment.PatientEmail, subject, body)
}

func (s *mailService) AppointmentCancelled(appointment *model.Appointment) {
	subject := "Your appointment was cancelled"
	body := fmt.Sprintf(
		"Hi %s,\n\nYour appointment with Dr. %s on %s at %s has been cancelled.\n",
		appointment.PatientName, appointment.DoctorName, appointment.Date, appointment.StartTime,
	)
	s.send(appointment.PatientEmail, subject, body)
}

func (s *mailService) send(to, subject, body string) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	go func() {
		if err := s.dialer.DialAndSend(msg); err != nil {
			log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		}
	}()
}
