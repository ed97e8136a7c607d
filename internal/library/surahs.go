package library

// Transliterated surah names, indexed by surah number minus one.
var surahNames = [114]string{
	"Al-Fatihah", "Al-Baqarah", "Aal-E-Imran", "An-Nisa", "Al-Ma'idah",
	"Al-An'am", "Al-A'raf", "Al-Anfal", "At-Tawbah", "Yunus",
	"Hud", "Yusuf", "Ar-Ra'd", "Ibrahim", "Al-Hijr",
	"An-Nahl", "Al-Isra", "Al-Kahf", "Maryam", "Taha",
	"Al-Anbiya", "Al-Hajj", "Al-Mu'minun", "An-Nur", "Al-Furqan",
	"Ash-Shu'ara", "An-Naml", "Al-Qasas", "Al-Ankabut", "Ar-Rum",
	"Luqman", "As-Sajdah", "Al-Ahzab", "Saba", "Fatir",
	"Ya-Sin", "As-Saffat", "Sad", "Az-Zumar", "Ghafir",
	"Fussilat", "Ash-Shura", "Az-Zukhruf", "Ad-Dukhan", "Al-Jathiyah",
	"Al-Ahqaf", "Muhammad", "Al-Fath", "Al-Hujurat", "Qaf",
	"Adh-Dhariyat", "At-Tur", "An-Najm", "Al-Qamar", "Ar-Rahman",
	"Al-Waqi'ah", "Al-Hadid", "Al-Mujadila", "Al-Hashr", "Al-Mumtahanah",
	"As-Saff", "Al-Jumu'ah", "Al-Munafiqun", "At-Taghabun", "At-Talaq",
	"At-Tahrim", "Al-Mulk", "Al-Qalam", "Al-Haqqah", "Al-Ma'arij",
	"Nuh", "Al-Jinn", "Al-Muzzammil", "Al-Muddathir", "Al-Qiyamah",
	"Al-Insan", "Al-Mursalat", "An-Naba", "An-Nazi'at", "Abasa",
	"At-Takwir", "Al-Infitar", "Al-Mutaffifin", "Al-Inshiqaq", "Al-Buruj",
	"At-Tariq", "Al-A'la", "Al-Ghashiyah", "Al-Fajr", "Al-Balad",
	"Ash-Shams", "Al-Layl", "Ad-Duha", "Ash-Sharh", "At-Tin",
	"Al-Alaq", "Al-Qadr", "Al-Bayyinah", "Az-Zalzalah", "Al-Adiyat",
	"Al-Qari'ah", "At-Takathur", "Al-Asr", "Al-Humazah", "Al-Fil",
	"Quraysh", "Al-Ma'un", "Al-Kawthar", "Al-Kafirun", "An-Nasr",
	"Al-Masad", "Al-Ikhlas", "Al-Falaq", "An-Nas",
}

const SurahCount = 114

// SurahName returns the transliterated name for a surah number, or "" when
// the number is out of range.
func SurahName(number int) string {
	if number < 1 || number > SurahCount {
		return ""
	}
	return surahNames[number-1]
}
