package domain

// NormalizePhone приводит номер к виду "только цифры"; ведущая единица
// североамериканского кода страны отбрасывается. Пустая строка — номера нет.
func NormalizePhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return string(digits)
}

// PhoneSuffix возвращает последние n цифр нормализованного номера.
func PhoneSuffix(normalized string, n int) string {
	if len(normalized) <= n {
		return normalized
	}
	return normalized[len(normalized)-n:]
}

// FloristPhone — псевдо-телефон флориста-отправителя: по нему B2B-отправители
// дедуплицируются как обычные клиенты.
func FloristPhone(memberCode string) string {
	if memberCode == "" {
		memberCode = "unknown"
	}
	return "ftd-" + memberCode
}
