package routes

import (
	"github.com/gofiber/fiber/v2"

	"siasa-backend/controllers"
	"siasa-backend/middlewares"
	"siasa-backend/repository"
	"siasa-backend/services"
)

// Register mounts every route group on the app. Callback and status lookups
// stay public so the payment provider and polling clients can reach them
// without a session.
func Register(
	app *fiber.App,
	auth *controllers.AuthController,
	payments *controllers.MpesaController,
	audits *controllers.AuditController,
	users repository.UserRepository,
	auditSvc *services.AuditService,
) {
	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", middlewares.Audit("AUTH_REGISTER", auditSvc), auth.Register)
	authGroup.Post("/login", middlewares.Audit("AUTH_LOGIN", auditSvc), auth.Login)
	authGroup.Post("/logout", middlewares.Protected(users), middlewares.Audit("AUTH_LOGOUT", auditSvc), auth.Logout)
	authGroup.Post("/forgot-password", middlewares.Audit("AUTH_FORGOT_PASSWORD", auditSvc), auth.ForgotPassword)
	authGroup.Post("/reset-password", middlewares.Audit("AUTH_RESET_PASSWORD", auditSvc), auth.ResetPassword)
	authGroup.Post("/send-otp", middlewares.Audit("AUTH_OTP_SEND", auditSvc), auth.SendOTP)
	authGroup.Post("/verify-otp", middlewares.Audit("AUTH_OTP_VERIFY", auditSvc), auth.VerifyOTP)

	mpesaGroup := api.Group("/mpesa")
	mpesaGroup.Post("/stk-push", middlewares.Audit("MPESA_STK_PUSH_INIT", auditSvc), payments.InitiatePayment)
	mpesaGroup.Post("/callback", payments.HandleCallback)
	mpesaGroup.Get("/payment/:checkoutRequestId", payments.GetPaymentStatus)
	mpesaGroup.Get("/all", middlewares.Protected(users), payments.GetAllPayments)

	api.Get("/audit-trails", middlewares.Protected(users), audits.GetAuditTrails)
}
