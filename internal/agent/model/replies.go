package model

// Canned user-facing replies. The clinic works in Indonesian.
const (
	ReplyHandlerFailure      = "Maaf, ada kesalahan teknis saat memproses jawaban."
	ReplyLoopGuard           = "Maaf, sistem kami sedang mengalami kendala teknis. Silakan coba lagi beberapa saat lagi."
	ReplyNoGeneration        = "Maaf, model tidak menghasilkan respon. Silakan coba lagi nanti."
	ReplyDatabaseUnavailable = "Maaf, saya tidak bisa mengakses data database saat ini."
	ReplyServiceUnavailable  = "Maaf, layanan informasi klinik sedang tidak tersedia. Silakan coba lagi nanti."
	ReplyNoInformation       = "Maaf, saya belum menemukan informasi tersebut di basis pengetahuan kami."
	ReplyNotUnderstood       = "Maaf, saya tidak menangkap informasi Anda. Bisa diulangi?"
	ReplyGreeting            = "Halo! Saya Peri, asisten virtual klinik. Ada yang bisa saya bantu?"

	ReplyBookingCancelled = "Baik, proses booking dibatalkan. Jika ingin membuat janji lagi, kabari saya ya."
	ReplyBookingConfirmed = "Terima kasih! Booking Anda sudah kami catat. Tim kami akan menghubungi Anda untuk konfirmasi."
)

// SlotQuestions are the deterministic follow-up questions per missing slot.
var SlotQuestions = map[SlotName]string{
	SlotPatientName: "Boleh saya tahu nama lengkap Anda?",
	SlotPhone:       "Boleh saya minta nomor telepon yang bisa dihubungi?",
	SlotServiceType: "Perawatan atau layanan apa yang ingin Anda booking?",
	SlotDoctor:      "Apakah ada dokter yang Anda inginkan?",
	SlotDate:        "Untuk tanggal berapa Anda ingin datang?",
	SlotTime:        "Jam berapa yang Anda inginkan?",
}
