package app

import "exam-bot/internal/domain"

const msgWelcome = `🎓 Hello, %s!

Welcome to the exam bot.

Here you can take tests in several subjects.`

const msgMainMenu = "🎓 Main menu\n\nChoose an option:"

const msgChooseSubject = "📚 Choose a subject:"

const msgNoQuestions = `⚠️ No questions have been added for %s yet.
📊 Questions: %d

Please try again later.`

const msgQuestionHeader = "❓ Question %d/%d\n\n📝 %s\n\n"

const msgTypeAnswer = "✍️ Type your answer:"

const msgCorrectToast = "✅ Correct!"

const msgWrongToast = "❌ Wrong! Correct answer: %s"

const msgCorrectText = "✅ Correct answer!"

const msgWrongText = "❌ Wrong! Correct answer: %s"

const msgFinished = `🎉 Test finished!

📊 Your result:
✅ Correct answers: %d/%d
📈 Score: %.1f%%

`

const msgResultNotSaved = "\n\n⚠️ Your result could not be saved. Please try again later."

const msgNoResults = `📊 You have no results yet.

Take a test!`

const msgResultsHeader = "📊 My results:\n\n"

const msgResultLine = "%d. %s\n   ✅ %d/%d (%.1f%%)\n\n"

const msgPermissionDenied = "❌ You do not have admin rights!"

const msgAdminPanel = "⚙️ Admin panel\n\nChoose an option:"

const msgPickSubject = "📚 Which subject should the question go to?"

const msgPickType = "Choose the question type:"

const msgAskQuestion = `📝 Send the question:

(For example: What is the capital of France?)`

const msgAskCorrectText = `✅ Question received!

✍️ Now type the correct answer:`

const msgAskAudio = `✅ Question received!

📎 Now send the audio file:`

const msgAskImage = `✅ Question received!

📎 Now send the picture:`

const msgAskOptions = `✅ Question received!

📝 Now send the options, one per line:

For example:
Paris
London
Berlin
Madrid`

const msgAudioReceived = `✅ Audio received!

📝 Now send the options, one per line:`

const msgImageReceived = `✅ Picture received!

📝 Now send the options, one per line:`

const msgEmptyOptions = "⚠️ The options list is empty. Send at least one option, one per line:"

const msgPickCorrect = `✅ Options received!

✔️ Choose the correct answer:`

const msgQuestionAdded = `✅ Question added!

📚 %s
📊 Total questions: %d`

const msgStats = `📊 Bot statistics

👥 Users: %d
✅ Completed tests: %d

📚 Questions:
`

const msgStatsLine = "  • %s: %d\n"

const msgFailure = "⚠️ Something went wrong. Please try again."

const (
	labelTakeTest    = "📚 Take a test"
	labelMyResults   = "📊 My results"
	labelAdminPanel  = "⚙️ Admin panel"
	labelBack        = "◀️ Back"
	labelRetry       = "🔄 Take another test"
	labelMainMenu    = "🏠 Main menu"
	labelAddQuestion = "➕ Add question"
	labelAddAnother  = "➕ Add another"
	labelStats       = "📊 Statistics"
)

var typeLabels = map[domain.QuestionType]string{
	domain.TypeMultipleChoice: "📝 Multiple choice (A, B, C, D)",
	domain.TypeTextInput:      "✍️ Written answer",
	domain.TypeAudio:          "🎧 Audio question",
	domain.TypeImage:          "🖼 Picture question",
}

var remarkTexts = map[domain.Remark]string{
	domain.RemarkExcellent:    "🏆 Excellent result!",
	domain.RemarkGood:         "👍 Good result!",
	domain.RemarkPracticeMore: "📚 Practice more!",
}
