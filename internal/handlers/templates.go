package handlers

var consoleTemplates = []byte(`
{{define "head"}}
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <link rel="stylesheet" href="/static/style.css">
    <link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap" rel="stylesheet">
    <style>body { font-family: 'Inter', sans-serif; } .hidden { display: none; }</style>
{{end}}

{{define "nav"}}
    <nav class="bg-gray-800/80 backdrop-blur-md border-b border-gray-700 sticky top-0 z-50">
        <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8">
            <div class="flex items-center justify-between h-16">
                <div class="flex items-center space-x-3">
                    <div class="w-8 h-8 bg-gradient-to-br from-blue-500 to-blue-700 rounded-lg flex items-center justify-center">
                        <svg class="w-5 h-5 text-white" fill="none" stroke="currentColor" viewBox="0 0 24 24">
                            <path stroke-linecap="round" stroke-linejoin="round" stroke-width="2" d="M13 10V3L4 14h7v7l9-11h-7z"/>
                        </svg>
                    </div>
                    <span class="text-xl font-bold text-white">Gateway Console</span>
                </div>
                <div class="flex items-center space-x-1">
                    <a href="/" class="px-3 py-2 rounded-lg text-sm font-medium {{if eq .Title "Dashboard"}}text-white bg-gray-700{{else}}text-gray-300 hover:text-white hover:bg-gray-700{{end}}">Dashboard</a>
                    <a href="/token" class="px-3 py-2 rounded-lg text-sm font-medium {{if eq .Title "API Tokens"}}text-white bg-gray-700{{else}}text-gray-300 hover:text-white hover:bg-gray-700{{end}}">Tokens</a>
                    {{if eq .Role "admin"}}
                    <a href="/user" class="px-3 py-2 rounded-lg text-sm font-medium {{if eq .Title "Users"}}text-white bg-gray-700{{else}}text-gray-300 hover:text-white hover:bg-gray-700{{end}}">Users</a>
                    {{end}}
                    <span class="px-3 py-2 text-sm text-gray-500">{{.User}}</span>
                    <form method="POST" action="/logout" class="ml-2">
                        <button type="submit" class="px-3 py-2 rounded-lg text-sm font-medium text-gray-300 hover:text-white hover:bg-gray-700">Sign out</button>
                    </form>
                </div>
            </div>
        </div>
    </nav>
{{end}}

{{define "login.html"}}
<!DOCTYPE html>
<html>
<head>
    <title>Sign In - Gateway Console</title>
    {{template "head" .}}
</head>
<body class="bg-gradient-to-br from-gray-900 via-gray-800 to-gray-900 min-h-screen flex items-center justify-center">
    <div class="w-full max-w-md">
        <div class="text-center mb-8">
            <div class="inline-flex items-center justify-center w-16 h-16 rounded-2xl bg-blue-600 mb-4">
                <svg class="w-8 h-8 text-white" fill="none" stroke="currentColor" viewBox="0 0 24 24">
                    <path stroke-linecap="round" stroke-linejoin="round" stroke-width="2" d="M12 15v2m-6 4h12a2 2 0 002-2v-6a2 2 0 00-2-2H6a2 2 0 00-2 2v6a2 2 0 002 2zm10-10V7a4 4 0 00-8 0v4h8z"/>
                </svg>
            </div>
            <h1 class="text-3xl font-bold text-white">Gateway Console</h1>
            <p class="text-gray-400 mt-2">Sign in with your gateway account</p>
        </div>

        <div class="bg-gray-800/50 backdrop-blur-sm border border-gray-700 rounded-2xl p-8">
            {{if .Error}}
            <div class="mb-6 bg-red-500/10 border border-red-500/50 rounded-xl p-3 text-sm text-red-400">{{.Error}}</div>
            {{end}}
            <form method="POST" action="/login">
                <div class="mb-6">
                    <label class="block text-gray-300 text-sm font-medium mb-2">Username</label>
                    <input type="text" name="username" required
                        class="w-full px-4 py-3 bg-gray-900/50 border border-gray-600 text-white rounded-xl focus:outline-none focus:ring-2 focus:ring-blue-500 focus:border-transparent transition-all">
                </div>
                <div class="mb-8">
                    <label class="block text-gray-300 text-sm font-medium mb-2">Password</label>
                    <input type="password" name="password" required
                        class="w-full px-4 py-3 bg-gray-900/50 border border-gray-600 text-white rounded-xl focus:outline-none focus:ring-2 focus:ring-blue-500 focus:border-transparent transition-all">
                </div>
                <button type="submit"
                    class="w-full bg-gradient-to-r from-blue-600 to-blue-700 text-white font-semibold py-3 px-4 rounded-xl hover:from-blue-700 hover:to-blue-800 transition-all">
                    Sign In
                </button>
            </form>
            <p class="mt-4 text-center text-sm text-gray-500">No account? Contact your system administrator.</p>
        </div>
    </div>
</body>
</html>
{{end}}

{{define "dashboard.html"}}
<!DOCTYPE html>
<html>
<head>
    <title>Dashboard - Gateway Console</title>
    {{template "head" .}}
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
</head>
<body class="bg-gray-900 min-h-screen">
    {{template "nav" .}}

    <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 py-8">
        <div class="bg-gray-800 rounded-2xl p-6 border border-gray-700 mb-8">
            <h3 class="text-lg font-semibold text-white mb-4">Token Usage (last 7 days)</h3>
            <canvas id="usageChart" height="90"></canvas>
        </div>

        <div class="bg-gray-800 rounded-2xl border border-gray-700 overflow-hidden">
            <div class="px-6 py-4 border-b border-gray-700">
                <h3 class="text-lg font-semibold text-white">Recent Console Activity</h3>
            </div>
            <div class="overflow-x-auto">
                <table class="w-full">
                    <thead class="bg-gray-900/50">
                        <tr>
                            <th class="px-6 py-3 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Time</th>
                            <th class="px-6 py-3 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Actor</th>
                            <th class="px-6 py-3 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Action</th>
                            <th class="px-6 py-3 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Target</th>
                            <th class="px-6 py-3 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Outcome</th>
                        </tr>
                    </thead>
                    <tbody class="divide-y divide-gray-700">
                        {{range (index .Data "Recent")}}
                        <tr class="hover:bg-gray-700/50 transition-colors">
                            <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-400">{{formatTime .CreatedAt}}</td>
                            <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-300">{{.Actor}}</td>
                            <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-300 font-mono">{{.Action}}</td>
                            <td class="px-6 py-4 whitespace-nowrap text-sm text-gray-400">{{.Target}}</td>
                            <td class="px-6 py-4 whitespace-nowrap">
                                <span class="px-2 py-1 text-xs font-medium rounded-full {{if eq .Outcome "ok"}}bg-green-500/20 text-green-400{{else}}bg-red-500/20 text-red-400{{end}}">{{.Outcome}}</span>
                            </td>
                        </tr>
                        {{else}}
                        <tr><td colspan="5" class="px-6 py-8 text-center text-gray-500">No activity yet</td></tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
        </div>
    </div>

    <script>
        var usageChart = null;

        function renderChart(series) {
            var labels = series.map(function(s) { return s.date; });
            var ctx = document.getElementById('usageChart');
            var datasets = [
                {
                    label: 'Prompt',
                    data: series.map(function(s) { return s.promptTokens; }),
                    borderColor: '#3B82F6',
                    backgroundColor: 'rgba(59, 130, 246, 0.2)',
                    fill: true,
                    tension: 0.3
                },
                {
                    label: 'Response',
                    data: series.map(function(s) { return s.responseTokens; }),
                    borderColor: '#10B981',
                    backgroundColor: 'rgba(16, 185, 129, 0.2)',
                    fill: true,
                    tension: 0.3
                }
            ];
            if (usageChart) {
                usageChart.data.labels = labels;
                usageChart.data.datasets = datasets;
                usageChart.update();
                return;
            }
            usageChart = new Chart(ctx, {
                type: 'line',
                data: { labels: labels, datasets: datasets },
                options: {
                    responsive: true,
                    animation: { duration: 300 },
                    scales: {
                        x: { ticks: { color: '#9CA3AF' } },
                        y: { ticks: { color: '#9CA3AF' }, beginAtZero: true }
                    },
                    plugins: { legend: { labels: { color: '#9CA3AF' } } }
                }
            });
        }

        function connectWS() {
            var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            var ws = new WebSocket(proto + '//' + location.host + '/ws');

            ws.onmessage = function(event) {
                try {
                    var msg = JSON.parse(event.data);
                    if (msg.type === 'usage_update') {
                        renderChart(msg.series);
                    }
                } catch (e) {
                    console.error('WS parse error:', e);
                }
            };

            ws.onclose = function() {
                setTimeout(connectWS, 3000);
            };

            ws.onerror = function() {
                ws.close();
            };
        }

        renderChart({{index .Data "SeriesJSON"}} || []);
        connectWS();
    </script>
</body>
</html>
{{end}}

{{define "tokens.html"}}
<!DOCTYPE html>
<html>
<head>
    <title>API Tokens - Gateway Console</title>
    {{template "head" .}}
    <script>
        function copyToken(value) {
            navigator.clipboard.writeText(value);
        }
    </script>
</head>
<body class="bg-gray-900 min-h-screen">
    {{template "nav" .}}

    <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 py-8">
        <div class="flex justify-between items-center mb-8">
            <div>
                <h1 class="text-3xl font-bold text-white">API Tokens</h1>
                <p class="text-gray-400 mt-1">Access tokens for calling the gateway API</p>
            </div>
            <form method="POST" action="/token" class="flex items-center space-x-2">
                <input type="text" name="name" placeholder="Token name" required
                    class="px-4 py-2.5 bg-gray-800 border border-gray-600 text-white rounded-xl focus:outline-none focus:ring-2 focus:ring-blue-500">
                <button type="submit"
                    class="bg-gradient-to-r from-blue-600 to-blue-700 text-white px-5 py-2.5 rounded-xl font-medium hover:from-blue-700 hover:to-blue-800 transition-all">
                    New Token
                </button>
            </form>
        </div>

        <div class="bg-gray-800 rounded-2xl border border-gray-700 overflow-hidden">
            <table class="w-full">
                <thead class="bg-gray-900/50">
                    <tr>
                        <th class="px-6 py-4 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Name</th>
                        <th class="px-6 py-4 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Token</th>
                        <th class="px-6 py-4 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Created</th>
                        <th class="px-6 py-4 text-right text-xs font-medium text-gray-400 uppercase tracking-wider">Actions</th>
                    </tr>
                </thead>
                <tbody class="divide-y divide-gray-700">
                    {{range (index .Data "Tokens")}}
                    <tr class="hover:bg-gray-700/50 transition-colors">
                        <td class="px-6 py-4 text-white font-medium">{{.Name}}</td>
                        <td class="px-6 py-4">
                            <div class="flex items-center space-x-2">
                                <code class="text-sm text-gray-400 font-mono">{{.Token}}</code>
                                <button onclick="copyToken('{{.Token}}')" class="text-blue-400 hover:text-blue-300 text-sm">Copy</button>
                            </div>
                        </td>
                        <td class="px-6 py-4 text-gray-400 text-sm">{{formatEpochMillis .CreatedAt}}</td>
                        <td class="px-6 py-4 text-right">
                            <form method="POST" action="/token/{{.ID}}/delete" class="inline">
                                <button type="submit" class="text-red-400 hover:text-red-300 font-medium">Delete</button>
                            </form>
                        </td>
                    </tr>
                    {{else}}
                    <tr><td colspan="4" class="px-6 py-12 text-center text-gray-500">No tokens yet</td></tr>
                    {{end}}
                </tbody>
            </table>
        </div>
    </div>
</body>
</html>
{{end}}

{{define "users.html"}}
<!DOCTYPE html>
<html>
<head>
    <title>Users - Gateway Console</title>
    {{template "head" .}}
</head>
<body class="bg-gray-900 min-h-screen">
    {{template "nav" .}}

    <div class="max-w-7xl mx-auto px-4 sm:px-6 lg:px-8 py-8">
        <div class="flex justify-between items-center mb-8">
            <div>
                <h1 class="text-3xl font-bold text-white">Users</h1>
                <p class="text-gray-400 mt-1">Gateway accounts and roles</p>
            </div>
        </div>

        {{if .Error}}
        <div class="mb-6 bg-red-500/10 border border-red-500/50 rounded-xl p-4 text-red-400">{{.Error}}</div>
        {{end}}

        <div class="bg-gray-800 rounded-2xl border border-gray-700 overflow-hidden mb-8">
            <table class="w-full">
                <thead class="bg-gray-900/50">
                    <tr>
                        <th class="px-6 py-4 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">ID</th>
                        <th class="px-6 py-4 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Username</th>
                        <th class="px-6 py-4 text-left text-xs font-medium text-gray-400 uppercase tracking-wider">Role</th>
                        <th class="px-6 py-4 text-right text-xs font-medium text-gray-400 uppercase tracking-wider">Actions</th>
                    </tr>
                </thead>
                <tbody class="divide-y divide-gray-700">
                    {{range (index .Data "Users")}}
                    <tr class="hover:bg-gray-700/50 transition-colors">
                        <td class="px-6 py-4 text-gray-400 text-sm">{{.ID}}</td>
                        <td class="px-6 py-4 text-white font-medium">{{.Username}}</td>
                        <td class="px-6 py-4">
                            <span class="px-2 py-1 text-xs font-medium rounded-full {{if eq .Role "admin"}}bg-purple-500/20 text-purple-400{{else}}bg-blue-500/20 text-blue-400{{end}}">{{.Role}}</span>
                        </td>
                        <td class="px-6 py-4 text-right">
                            <form method="POST" action="/user/{{.ID}}/update" class="inline-flex items-center space-x-2 mr-4">
                                <input type="hidden" name="username" value="{{.Username}}">
                                <input type="hidden" name="role" value="{{.Role}}">
                                <input type="password" name="password" placeholder="New password"
                                    class="px-3 py-1.5 bg-gray-900/50 border border-gray-600 text-white text-sm rounded-lg focus:outline-none focus:ring-2 focus:ring-blue-500">
                                <button type="submit" class="text-blue-400 hover:text-blue-300 text-sm font-medium">Reset</button>
                            </form>
                            <form method="POST" action="/user/{{.ID}}/delete" class="inline">
                                <button type="submit" class="text-red-400 hover:text-red-300 text-sm font-medium">Delete</button>
                            </form>
                        </td>
                    </tr>
                    {{else}}
                    <tr><td colspan="4" class="px-6 py-12 text-center text-gray-500">No users</td></tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        <div class="bg-gray-800 rounded-2xl border border-gray-700 p-6">
            <h3 class="text-lg font-semibold text-white mb-4">Create User</h3>
            <form method="POST" action="/user" class="grid grid-cols-1 md:grid-cols-4 gap-4">
                <input type="text" name="username" placeholder="Username" required
                    class="px-4 py-2.5 bg-gray-900/50 border border-gray-600 text-white rounded-xl focus:outline-none focus:ring-2 focus:ring-blue-500">
                <input type="password" name="password" placeholder="Password" required
                    class="px-4 py-2.5 bg-gray-900/50 border border-gray-600 text-white rounded-xl focus:outline-none focus:ring-2 focus:ring-blue-500">
                <select name="role"
                    class="px-4 py-2.5 bg-gray-900/50 border border-gray-600 text-white rounded-xl focus:outline-none focus:ring-2 focus:ring-blue-500">
                    <option value="user">user</option>
                    <option value="admin">admin</option>
                </select>
                <button type="submit"
                    class="bg-gradient-to-r from-blue-600 to-blue-700 text-white px-5 py-2.5 rounded-xl font-medium hover:from-blue-700 hover:to-blue-800 transition-all">
                    Create
                </button>
            </form>
        </div>
    </div>
</body>
</html>
{{end}}
`)
