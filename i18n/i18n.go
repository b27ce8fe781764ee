// Package i18n holds the English and Arabic strings used by the statement
// renderer and API notices.
package i18n

import (
	"context"
	"strings"
)

const (
	English = "en"
	Arabic  = "ar"

	Default = English
)

var translations = map[string]map[string]string{
	English: {
		"required":          "Required",
		"statement_title":   "Statement of Account",
		"statement_for":     "Prepared for",
		"issued_on":         "Issued on",
		"industry":          "Industry",
		"phone":             "Phone",
		"project":           "Project",
		"price_quoted":      "Total Quoted",
		"amount_paid":       "Amount Paid",
		"balance_due":       "Balance Due",
		"percent_paid":      "Paid",
		"status_fully_paid": "Fully Paid",
		"status_partial":    "Partially Paid",
		"status_unpaid":     "Unpaid",
		"payment_history":   "Payment History",
		"payment_batch":     "Batch",
		"no_payments":       "No payments recorded yet.",
		"notes":             "Notes",
		"client_created":    "Client created successfully",
		"client_updated":    "Client updated",
		"status_updated":    "Status updated",
		"payment_added":     "Payment added",
		"note_added":        "Note added",
		"client_deleted":    "Client deleted",
		"demo_data_cleared": "Demo data cleared",
		"create_failed":     "Failed to create client",
		"update_failed":     "Failed to update client",
		"status_failed":     "Failed to update status",
		"payment_failed":    "Failed to add payment",
		"note_failed":       "Failed to add note",
		"delete_failed":     "Failed to delete client",
		"load_failed":       "Could not load clients, showing cached data",
		"demo_suffix":       "(Local Only)",
		"thank_you":         "Thank you for your business.",
		"LEAD":              "Lead",
		"PENDING":           "Pending",
		"ACTIVE":            "Active",
		"SUSPENDED":         "Suspended",
	},
	Arabic: {
		"required":          "مطلوب",
		"statement_title":   "كشف حساب",
		"statement_for":     "مقدم إلى",
		"issued_on":         "تاريخ الإصدار",
		"industry":          "المجال",
		"phone":             "الهاتف",
		"project":           "المشروع",
		"price_quoted":      "السعر الإجمالي",
		"amount_paid":       "المبلغ المدفوع",
		"balance_due":       "المبلغ المتبقي",
		"percent_paid":      "نسبة الدفع",
		"status_fully_paid": "مدفوع بالكامل",
		"status_partial":    "مدفوع جزئياً",
		"status_unpaid":     "غير مدفوع",
		"payment_history":   "سجل الدفعات",
		"payment_batch":     "دفعة",
		"no_payments":       "لا توجد دفعات مسجلة بعد.",
		"notes":             "الملاحظات",
		"client_created":    "تم إنشاء العميل بنجاح",
		"client_updated":    "تم تحديث العميل",
		"status_updated":    "تم تحديث الحالة",
		"payment_added":     "تمت إضافة الدفعة",
		"note_added":        "تمت إضافة الملاحظة",
		"client_deleted":    "تم حذف العميل",
		"demo_data_cleared": "تم مسح البيانات التجريبية",
		"create_failed":     "فشل إنشاء العميل",
		"update_failed":     "فشل تحديث العميل",
		"status_failed":     "فشل تحديث الحالة",
		"payment_failed":    "فشل إضافة الدفعة",
		"note_failed":       "فشل إضافة الملاحظة",
		"delete_failed":     "فشل حذف العميل",
		"load_failed":       "تعذر تحميل العملاء، يتم عرض البيانات المخزنة",
		"demo_suffix":       "(محلي فقط)",
		"thank_you":         "شكراً لتعاملكم معنا.",
		"LEAD":              "عميل محتمل",
		"PENDING":           "قيد الانتظار",
		"ACTIVE":            "نشط",
		"SUSPENDED":         "موقوف",
	},
}

// T translates code into lang. Unknown languages use English; unknown codes
// are returned unchanged.
func T(lang, code string) string {
	if m, ok := translations[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := translations[Default][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := translations[lang]
	return ok
}

// DetectLanguage picks the first supported language of an Accept-Language
// header, defaulting to English.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		base, _, _ := strings.Cut(strings.ToLower(tag), "-")
		if Supported(base) {
			return base
		}
	}
	return Default
}

// Dir returns the text direction for lang.
func Dir(lang string) string {
	if lang == Arabic {
		return "rtl"
	}
	return "ltr"
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language, or Default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(langKey{}).(string); ok && l != "" {
		return l
	}
	return Default
}
