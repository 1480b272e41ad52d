package queue

import (
	"encoding/json"
	"log"
)

// LogDelivery "delivers" a notification by logging it. Real dispatch (SMS,
// email) is out of scope; demo deployments read the code from the log.
func LogDelivery(msg Message) {
	switch msg.Type {
	case "otp":
		var n OTPNotification
		if err := json.Unmarshal(msg.Body, &n); err != nil {
			log.Printf("malformed otp notification: %v", err)
			return
		}
		log.Printf("OTP for %s: %s (no delivery gateway configured)", n.MobileNumber, n.Code)
	default:
		log.Printf("unhandled notification type %q", msg.Type)
	}
}
