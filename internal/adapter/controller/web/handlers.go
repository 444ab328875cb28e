package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/checkout"
)

// Page and proxy messages
const (
	MsgMethodNotAllowed = "❌ طريقة الطلب غير صحيحة"
	MsgProxyHTTPError   = "❌ HTTP Error: "
	MsgProxyError       = "❌ Proxy Error: "
	MsgPaymentFailTitle = "❌ فشل الدفع"
	MsgPaymentFailBody  = "حدث خطأ أثناء معالجة عملية الدفع. برجاء المحاولة مرة أخرى أو التواصل معنا."
	MsgFreePlanAccepted = "✅ تم تفعيل الخطة المجانية"
)

// paymentForm accepts the checkout fields as JSON or as a posted form
type paymentForm struct {
	PlanID               string `json:"plan_id" form:"plan_id"`
	FirstName            string `json:"first_name" form:"first_name"`
	LastName             string `json:"last_name" form:"last_name"`
	Email                string `json:"email" form:"email"`
	Phone                string `json:"phone" form:"phone"`
	Address              string `json:"address" form:"address"`
	BusinessType         string `json:"business_type" form:"business_type"`
	Subdomain            string `json:"subdomain" form:"subdomain"`
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

func (f paymentForm) request() output.PaymentRequest {
	return output.PaymentRequest{
		PlanID:               f.PlanID,
		FirstName:            f.FirstName,
		LastName:             f.LastName,
		Email:                f.Email,
		Phone:                f.Phone,
		Address:              f.Address,
		BusinessType:         f.BusinessType,
		Subdomain:            f.Subdomain,
		Password:             f.Password,
		PasswordConfirmation: f.PasswordConfirmation,
	}
}

func (s *Server) handleMethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"status": "error", "message": MsgMethodNotAllowed})
}

// handlePlansProxy relays the plan catalogue so the browser avoids CORS
func (s *Server) handlePlansProxy(c *gin.Context) {
	resp, err := s.plans.FetchRaw(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"status": false, "message": MsgProxyError + err.Error()})
		return
	}
	if resp.Status != http.StatusOK {
		c.JSON(resp.Status, gin.H{"status": false, "message": fmt.Sprintf("%s%d", MsgProxyHTTPError, resp.Status)})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", resp.Body)
}

func (s *Server) handlePayment(c *gin.Context) {
	var form paymentForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": checkout.MsgInvalidUserData})
		return
	}

	res, err := s.checkout.Checkout(c.Request.Context(), form.request())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": res.Status, "url": res.URL})
}

func (s *Server) handlePaymentSuccess(c *gin.Context) {
	token := c.Query("user_data")
	if token == "" && c.Query("free_plan") == "1" {
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": MsgFreePlanAccepted, "plan_id": c.Query("plan_id")})
		return
	}

	done, err := s.checkout.Complete(c.Request.Context(), token)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{"status": "success", "url": done.TenantURL, "message": done.Message})
		return
	}
	c.Redirect(http.StatusFound, done.TenantURL)
}

func (s *Server) handlePaymentFail(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "error", "title": MsgPaymentFailTitle, "message": MsgPaymentFailBody})
}

// respondError maps checkout failures onto a status and a user-facing message
func (s *Server) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var rej *checkout.RejectedError
	if !errors.As(err, &rej) {
		s.logger.Error("checkout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "❌ حدث خطأ غير متوقع"})
		return
	}

	status := http.StatusBadRequest
	if errors.Is(err, output.ErrUpstream) {
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"status": "error", "message": rej.Message})
}
